package validate

import (
	"bytes"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/clearsign"

	"lpm/errs"
	"lpm/format"
)

// checkSignature verifies that pkg.SignaturePath is a clearsigned message
// whose signature was made by a key present in the keyring at keyringPath.
// Only the signature over the message's own text is checked; that text is
// not compared with the package's files.yaml manifest. Grounded in main.go's
// signBytes/extractPublicKey use of openpgp.ReadArmoredKeyRing + clearsign.
func checkSignature(pkg *format.Package, keyringPath string) error {
	keyringFile, err := os.Open(keyringPath)
	if err != nil {
		return &errs.MalformedPackage{Reason: "opening keyring " + keyringPath, Err: err}
	}
	defer keyringFile.Close()

	keyring, err := openpgp.ReadArmoredKeyRing(keyringFile)
	if err != nil {
		return &errs.MalformedPackage{Reason: "reading keyring", Err: err}
	}

	sigData, err := os.ReadFile(pkg.SignaturePath)
	if err != nil {
		return &errs.MalformedPackage{Reason: "opening signature", Err: err}
	}

	block, _ := clearsign.Decode(sigData)
	if block == nil {
		return &errs.MalformedPackage{Reason: "signature.asc is not a valid clearsigned message"}
	}

	if _, err := openpgp.CheckDetachedSignature(keyring, bytes.NewReader(block.Bytes), block.ArmoredSignature.Body, nil); err != nil {
		return &errs.MalformedPackage{Reason: "signature verification failed", Err: err}
	}
	return nil
}
