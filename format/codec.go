package format

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"lpm/errs"
)

// decodeStrict unmarshals data into v, rejecting any key not present on the
// destination struct. This is how §6's "fields unknown to the reader are
// rejected" requirement is realized for the self-describing meta/files
// format.
func decodeStrict(data []byte, v interface{}) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		return err
	}
	return nil
}

// decodeMeta parses meta.yaml into a Metadata value.
func decodeMeta(data []byte) (Metadata, error) {
	var m Metadata
	if err := decodeStrict(data, &m); err != nil {
		return Metadata{}, &errs.MalformedPackage{Reason: "meta.yaml", Err: err}
	}
	if m.Name == "" {
		return Metadata{}, &errs.MalformedPackage{Reason: "meta.yaml: name is required"}
	}
	if m.Maintainer == "" {
		return Metadata{}, &errs.MalformedPackage{Reason: "meta.yaml: maintainer is required"}
	}
	if m.Architecture == "" {
		return Metadata{}, &errs.MalformedPackage{Reason: "meta.yaml: architecture is required"}
	}
	return m, nil
}

// decodeManifest parses files.yaml into an ordered FileEntry slice.
func decodeManifest(data []byte) ([]FileEntry, error) {
	var man Manifest
	if err := decodeStrict(data, &man); err != nil {
		return nil, &errs.MalformedPackage{Reason: "files.yaml", Err: err}
	}
	for _, f := range man.Files {
		if f.RelativePath == "" {
			return nil, &errs.MalformedPackage{Reason: "files.yaml: entry missing relative_path"}
		}
		switch f.ChecksumAlgorithm {
		case MD5, SHA256, SHA512:
		default:
			return nil, &errs.UnsupportedChecksumAlgorithm{Algorithm: string(f.ChecksumAlgorithm)}
		}
	}
	return man.Files, nil
}

// encodeMeta serializes m to meta.yaml bytes.
func encodeMeta(m Metadata) ([]byte, error) {
	b, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding meta.yaml: %w", err)
	}
	return b, nil
}

// encodeManifest serializes files to files.yaml bytes.
func encodeManifest(files []FileEntry) ([]byte, error) {
	b, err := yaml.Marshal(Manifest{Files: files})
	if err != nil {
		return nil, fmt.Errorf("encoding files.yaml: %w", err)
	}
	return b, nil
}
