package format

// ScriptPhase names a point in a package's lifecycle at which a script may run.
type ScriptPhase string

const (
	PreInstall    ScriptPhase = "pre_install"
	PostInstall   ScriptPhase = "post_install"
	PreUpgrade    ScriptPhase = "pre_upgrade"
	PostUpgrade   ScriptPhase = "post_upgrade"
	PreDowngrade  ScriptPhase = "pre_downgrade"
	PostDowngrade ScriptPhase = "post_downgrade"
	PreDelete     ScriptPhase = "pre_delete"
	PostDelete    ScriptPhase = "post_delete"
)

// AllPhases lists every recognized phase; ReadStaged looks for a script under
// meta/scripts/ for each of them, in this order.
var AllPhases = []ScriptPhase{
	PreInstall, PostInstall,
	PreUpgrade, PostUpgrade,
	PreDowngrade, PostDowngrade,
	PreDelete, PostDelete,
}

// ChecksumAlgorithm names a supported digest algorithm for manifest entries.
type ChecksumAlgorithm string

const (
	MD5    ChecksumAlgorithm = "md5"
	SHA256 ChecksumAlgorithm = "sha256"
	SHA512 ChecksumAlgorithm = "sha512"
)

// AnyArch is the package architecture tag that matches every host.
const AnyArch = "any"

// Archive member names within the outer ar container, mirroring the
// teacher's debian-binary/control.tar.gz/data.tar.gz triplet but reduced to
// the two members spec.md §6 names plus a magic member.
const (
	memberMagic   = "lpm-bundle"
	memberMeta    = "meta.tar.gz"
	memberProgram = "program.tar.gz"
)

// bundleMagic is the content of the first ar member, analogous to the
// "2.0\n" debian-binary marker.
const bundleMagic = "lpm1\n"
