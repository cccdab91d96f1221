package service

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// ErrNotEPUB is returned for files that are not a readable EPUB archive.
var ErrNotEPUB = errors.New("not a valid epub")

// maxEntryBytes bounds how much of a single archive entry is read.
const maxEntryBytes = 16 << 20

type epubContainer struct {
	RootFiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

// opfPackage is the part of the OPF package document we read. Element names
// match by local name, so dc: and opf: prefixes need no special handling.
type opfPackage struct {
	Metadata struct {
		Titles      []string `xml:"title"`
		Creators    []string `xml:"creator"`
		Identifiers []struct {
			ID     string `xml:"id,attr"`
			Scheme string `xml:"scheme,attr"`
			Value  string `xml:",chardata"`
		} `xml:"identifier"`
		Meta []struct {
			Name     string `xml:"name,attr"`
			Content  string `xml:"content,attr"`
			Property string `xml:"property,attr"`
			Refines  string `xml:"refines,attr"`
			Value    string `xml:",chardata"`
		} `xml:"meta"`
	} `xml:"metadata"`
	Manifest []struct {
		ID         string `xml:"id,attr"`
		Href       string `xml:"href,attr"`
		MediaType  string `xml:"media-type,attr"`
		Properties string `xml:"properties,attr"`
	} `xml:"manifest>item"`
}

// EPUBInfo is what ReadEPUB could find in the package metadata. Any field may
// be empty.
type EPUBInfo struct {
	Title     string
	Author    string
	ISBN      string
	Cover     []byte
	CoverType string
}

// ReadEPUB extracts the title, first creator, ISBN and cover image of an
// EPUB. A missing cover or ISBN is not an error.
func ReadEPUB(r io.ReaderAt, size int64) (*EPUBInfo, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotEPUB, err)
	}
	raw, err := readZipEntry(zr, "META-INF/container.xml")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotEPUB, err)
	}
	var container epubContainer
	if err := xml.Unmarshal(raw, &container); err != nil {
		return nil, fmt.Errorf("%w: container.xml: %v", ErrNotEPUB, err)
	}
	if len(container.RootFiles) == 0 || container.RootFiles[0].FullPath == "" {
		return nil, fmt.Errorf("%w: no rootfile in container.xml", ErrNotEPUB)
	}
	opfPath := container.RootFiles[0].FullPath
	raw, err = readZipEntry(zr, opfPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotEPUB, err)
	}
	var pkg opfPackage
	if err := xml.Unmarshal(raw, &pkg); err != nil {
		return nil, fmt.Errorf("%w: package document: %v", ErrNotEPUB, err)
	}

	info := &EPUBInfo{
		Title:  firstNonBlank(pkg.Metadata.Titles),
		Author: firstNonBlank(pkg.Metadata.Creators),
		ISBN:   pkg.isbn(),
	}
	if href, mediaType := pkg.coverItem(); href != "" {
		// Cover hrefs are relative to the package document.
		coverPath := path.Join(path.Dir(opfPath), href)
		if img, err := readZipEntry(zr, coverPath); err == nil && len(img) > 0 {
			info.Cover = img
			info.CoverType = mediaType
			if info.CoverType == "" {
				info.CoverType = "image/jpeg"
			}
		}
	}
	return info, nil
}

// isbn prefers identifiers marked as ISBN, by scheme attribute (EPUB 2) or by
// a refining identifier-type meta (EPUB 3), then any identifier that looks
// like one.
func (p *opfPackage) isbn() string {
	ids := p.Metadata.Identifiers
	for _, id := range ids {
		if isISBNScheme(id.Scheme) {
			if isbn := cleanISBN(id.Value); isbn != "" {
				return isbn
			}
		}
	}
	for _, m := range p.Metadata.Meta {
		prop := strings.ToLower(strings.TrimSpace(m.Property))
		if prop != "identifier-type" && prop != "scheme" {
			continue
		}
		if !isISBNScheme(m.Value) && !isISBNScheme(m.Content) {
			continue
		}
		ref := strings.TrimPrefix(strings.TrimSpace(m.Refines), "#")
		for _, id := range ids {
			if id.ID == ref {
				if isbn := cleanISBN(id.Value); isbn != "" {
					return isbn
				}
			}
		}
	}
	for _, id := range ids {
		v := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(id.Value)), "urn:isbn:")
		if strings.ContainsFunc(v, func(r rune) bool { return r >= 'a' && r <= 'z' && r != 'x' }) {
			continue // uuid, doi and the like
		}
		if isbn := cleanISBN(v); isbn != "" {
			return isbn
		}
	}
	return ""
}

// coverItem finds the manifest entry for the cover: the EPUB 3
// cover-image property first, then the EPUB 2 <meta name="cover">.
func (p *opfPackage) coverItem() (href, mediaType string) {
	for _, item := range p.Manifest {
		for _, prop := range strings.Fields(item.Properties) {
			if prop == "cover-image" {
				return item.Href, item.MediaType
			}
		}
	}
	var coverID string
	for _, m := range p.Metadata.Meta {
		if strings.EqualFold(m.Name, "cover") && m.Content != "" {
			coverID = m.Content
			break
		}
	}
	if coverID == "" {
		return "", ""
	}
	for _, item := range p.Manifest {
		if item.ID == coverID {
			return item.Href, item.MediaType
		}
	}
	return "", ""
}

func isISBNScheme(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "isbn", "isbn-10", "isbn-13", "15": // 15 is the ONIX code for ISBN-13
		return true
	}
	return false
}

// cleanISBN keeps the digits (and a trailing X) of v and returns them when
// they form an ISBN-10 or ISBN-13, or "" otherwise.
func cleanISBN(v string) string {
	var b strings.Builder
	for _, r := range v {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == 'X' || r == 'x':
			b.WriteByte('X')
		}
	}
	s := b.String()
	if x := strings.IndexByte(s, 'X'); x >= 0 && (x != len(s)-1 || len(s) != 10) {
		return ""
	}
	if len(s) != 10 && len(s) != 13 {
		return ""
	}
	return s
}

func firstNonBlank(vals []string) string {
	for _, v := range vals {
		if v = strings.Join(strings.Fields(v), " "); v != "" {
			return v
		}
	}
	return ""
}

// readZipEntry reads name from the archive, matching case-insensitively and
// treating backslashes as separators.
func readZipEntry(zr *zip.Reader, name string) ([]byte, error) {
	name = strings.ReplaceAll(name, "\\", "/")
	for _, f := range zr.File {
		if !strings.EqualFold(strings.ReplaceAll(f.Name, "\\", "/"), name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, io.LimitReader(rc, maxEntryBytes)); err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("%s not found in archive", name)
}
