package format

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/blakesmith/ar"

	"lpm/errs"
)

// BuildSpec is everything needed to assemble a bundle on disk, mirroring
// the fields deb.Package.WriteTo draws from.
type BuildSpec struct {
	Meta    Metadata
	Files   []FileEntry
	Scripts map[ScriptPhase]string
	// ProgramFiles maps each FileEntry's RelativePath to its content.
	ProgramFiles map[string][]byte
}

// WriteTo assembles the bundle (ar container: magic member, meta.tar.gz,
// program.tar.gz) and writes it to w, the way deb.Package.WriteTo assembles
// debian-binary/control.tar.gz/data.tar.gz.
func WriteTo(w io.Writer, spec BuildSpec) (int64, error) {
	cw := &countingWriter{w: w}

	metaGz, err := buildMetaArchive(spec)
	if err != nil {
		return cw.n, fmt.Errorf("building meta archive: %w", err)
	}
	programGz, err := buildProgramArchive(spec)
	if err != nil {
		return cw.n, fmt.Errorf("building program archive: %w", err)
	}

	arW := ar.NewWriter(cw)
	if err := arW.WriteGlobalHeader(); err != nil {
		return cw.n, fmt.Errorf("writing ar global header: %w", err)
	}
	if err := addBufferToAr(arW, memberMagic, []byte(bundleMagic)); err != nil {
		return cw.n, fmt.Errorf("writing %s: %w", memberMagic, err)
	}
	if err := addBufferToAr(arW, memberMeta, metaGz); err != nil {
		return cw.n, fmt.Errorf("writing %s: %w", memberMeta, err)
	}
	if err := addBufferToAr(arW, memberProgram, programGz); err != nil {
		return cw.n, fmt.Errorf("writing %s: %w", memberProgram, err)
	}
	return cw.n, nil
}

func buildMetaArchive(spec BuildSpec) ([]byte, error) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)

	metaYaml, err := encodeMeta(spec.Meta)
	if err != nil {
		return nil, err
	}
	if err := writeTarEntry(tw, "meta/meta.yaml", metaYaml, 0644); err != nil {
		return nil, err
	}

	filesYaml, err := encodeManifest(spec.Files)
	if err != nil {
		return nil, err
	}
	if err := writeTarEntry(tw, "meta/files.yaml", filesYaml, 0644); err != nil {
		return nil, err
	}

	var phases []string
	for phase := range spec.Scripts {
		phases = append(phases, string(phase))
	}
	sort.Strings(phases)
	for _, phase := range phases {
		body := spec.Scripts[ScriptPhase(phase)]
		if body == "" {
			continue
		}
		if err := writeTarEntry(tw, "meta/scripts/"+phase, []byte(body), 0755); err != nil {
			return nil, err
		}
	}

	if err := tw.Close(); err != nil {
		return nil, err
	}
	if err := gw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func buildProgramArchive(spec BuildSpec) ([]byte, error) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)

	var rels []string
	for _, f := range spec.Files {
		rels = append(rels, f.RelativePath)
	}
	sort.Strings(rels)
	for _, rel := range rels {
		content := spec.ProgramFiles[rel]
		if err := writeTarEntry(tw, "program/"+rel, content, 0644); err != nil {
			return nil, err
		}
	}

	if err := tw.Close(); err != nil {
		return nil, err
	}
	if err := gw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeTarEntry(tw *tar.Writer, name string, content []byte, mode int64) error {
	header := &tar.Header{
		Name:    name,
		Size:    int64(len(content)),
		Mode:    mode,
		ModTime: time.Now(),
	}
	if err := tw.WriteHeader(header); err != nil {
		return err
	}
	_, err := tw.Write(content)
	return err
}

// countingWriter wraps an io.Writer and counts bytes written, the same way
// deb.Package.WriteTo tracks its archive size.
type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

func addBufferToAr(w *ar.Writer, name string, body []byte) error {
	header := &ar.Header{
		Name:    name,
		Size:    int64(len(body)),
		Mode:    0644,
		ModTime: time.Now(),
	}
	if err := w.WriteHeader(header); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

// SplitBundle performs the "half-extract" step of §4.5: it walks the outer
// ar container and returns the raw (still gzip-compressed) bytes of the
// meta and program tar archives, without unpacking either one.
func SplitBundle(r io.Reader) (metaGz, programGz []byte, err error) {
	arR := ar.NewReader(r)
	for {
		header, err := arR.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, &errs.MalformedPackage{Reason: "reading ar header", Err: err}
		}

		switch header.Name {
		case memberMeta:
			metaGz, err = readAll(arR, header.Size)
			if err != nil {
				return nil, nil, &errs.MalformedPackage{Reason: "reading meta member", Err: err}
			}
		case memberProgram:
			programGz, err = readAll(arR, header.Size)
			if err != nil {
				return nil, nil, &errs.MalformedPackage{Reason: "reading program member", Err: err}
			}
		}
	}
	if metaGz == nil || programGz == nil {
		return nil, nil, &errs.MalformedPackage{Reason: "bundle missing meta.tar.gz or program.tar.gz member"}
	}
	return metaGz, programGz, nil
}

func readAll(r io.Reader, size int64) ([]byte, error) {
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ExtractTarGz decompresses a gzip-compressed tar archive's content into
// destDir, creating parent directories as needed. This is the "full-extract"
// step of §4.5, applied once to the meta member and once to the program
// member.
func ExtractTarGz(data []byte, destDir string) error {
	gzr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return &errs.MalformedPackage{Reason: "opening tar.gz member", Err: err}
	}
	defer gzr.Close()

	tr := tar.NewReader(gzr)
	for {
		th, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return &errs.MalformedPackage{Reason: "reading tar entry", Err: err}
		}

		target := filepath.Join(destDir, th.Name)
		switch th.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return &errs.Io{Op: "mkdir", Path: target, Err: err}
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return &errs.Io{Op: "mkdir", Path: filepath.Dir(target), Err: err}
			}
			f, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, os.FileMode(th.Mode))
			if err != nil {
				return &errs.Io{Op: "create", Path: target, Err: err}
			}
			if _, err := io.Copy(f, tr); err != nil {
				f.Close()
				return &errs.Io{Op: "write", Path: target, Err: err}
			}
			if err := f.Close(); err != nil {
				return &errs.Io{Op: "close", Path: target, Err: err}
			}
		}
	}
	return nil
}
