// Package xmlwalk stream-walks XML/OOXML documents, translating text
// events inside a caller-specified set of target elements while
// re-emitting every other event byte-for-bit unchanged. Grounded on
// arturoeanton-go-xml's charset-reader idiom (windows-1252 decoding
// support for legacy office documents) and the original implementation's
// attachments/office.rs depth-tracked si/is handling for XLSX.
package xmlwalk

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/valpere/polyglotter/internal/errs"
)

// TargetElement names a local element name (e.g. "t") whose direct text
// content should be translated. Namespace prefixes are matched on the
// decoded xml.Name.Local, independent of the prefix used in the source.
type TargetElement struct {
	Local string
	// TrackSIIS restricts translation to text nested inside <si>/<is>
	// (xlsx shared-string / inline-string) ancestors, per the xlsx
	// `<t>`-only recognition the spec keeps as-is (Open Question #3).
	TrackSIIS bool
}

// Translator turns source text into translated text, via the document's
// translation cache (component B).
type Translator func(core string) (string, error)

// Walk streams data, translating text inside the named target elements,
// and returns the re-emitted bytes with every other token preserved
// exactly — comments, attributes, processing instructions, and CDATA
// delimiters included.
//
// encoding/xml's tokenizer does not distinguish a CDATA section from plain
// character data once decoded, so CDATA sections are lifted out before
// tokenizing and spliced back with their delimiters after re-encoding;
// contents inside a target element round-trip through the translator like
// any other text node.
func Walk(data []byte, targets []TargetElement, tr Translator) ([]byte, error) {
	targetSet := make(map[string]TargetElement, len(targets))
	for _, t := range targets {
		targetSet[t.Local] = t
	}

	data, sections := extractCDATA(data)

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charsetReader

	var out bytes.Buffer
	enc := xml.NewEncoder(&out)

	var elemStack []string
	siisDepth := 0

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errs.WithFormat(errs.Parse, "xml", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			elemStack = append(elemStack, t.Name.Local)
			if t.Name.Local == "si" || t.Name.Local == "is" {
				siisDepth++
			}
			if err := enc.EncodeToken(t); err != nil {
				return nil, errs.WithFormat(errs.Parse, "xml", err)
			}

		case xml.EndElement:
			if len(elemStack) > 0 {
				if elemStack[len(elemStack)-1] == "si" || elemStack[len(elemStack)-1] == "is" {
					siisDepth--
				}
				elemStack = elemStack[:len(elemStack)-1]
			}
			if err := enc.EncodeToken(t); err != nil {
				return nil, errs.WithFormat(errs.Parse, "xml", err)
			}

		case xml.CharData:
			current := ""
			if len(elemStack) > 0 {
				current = elemStack[len(elemStack)-1]
			}
			target, isTarget := targetSet[current]
			needsSIIS := isTarget && target.TrackSIIS
			if isTarget && (!needsSIIS || siisDepth > 0) && len(bytes.TrimSpace(t)) > 0 {
				translated, err := translateMarkedText(string(t), sections, tr)
				if err != nil {
					return nil, err
				}
				if err := enc.EncodeToken(xml.CharData(translated)); err != nil {
					return nil, errs.WithFormat(errs.Parse, "xml", err)
				}
			} else {
				if err := enc.EncodeToken(t); err != nil {
					return nil, errs.WithFormat(errs.Parse, "xml", err)
				}
			}

		default:
			if err := enc.EncodeToken(tok); err != nil {
				return nil, errs.WithFormat(errs.Parse, "xml", err)
			}
		}
	}

	if err := enc.Flush(); err != nil {
		return nil, errs.WithFormat(errs.Parse, "xml", err)
	}
	return restoreCDATA(out.Bytes(), sections), nil
}

// cdataMark delimits a lifted-out CDATA section while the document passes
// through the tokenizer. U+E000 (private use area) is a valid XML
// character that neither the decoder nor xml.EscapeText rewrites, so the
// markers survive the round trip untouched.
const cdataMark = "\uE000"

type cdataSection struct {
	content    string
	translated string
	inTarget   bool
}

// extractCDATA replaces every `<![CDATA[...]]>` span with a numbered
// marker and records the section contents for restoreCDATA.
func extractCDATA(data []byte) ([]byte, []*cdataSection) {
	var sections []*cdataSection
	var out bytes.Buffer
	for {
		start := bytes.Index(data, []byte("<![CDATA["))
		if start < 0 {
			break
		}
		end := bytes.Index(data[start+9:], []byte("]]>"))
		if end < 0 {
			break
		}
		out.Write(data[:start])
		fmt.Fprintf(&out, "%s%d%s", cdataMark, len(sections), cdataMark)
		sections = append(sections, &cdataSection{content: string(data[start+9 : start+9+end])})
		data = data[start+9+end+3:]
	}
	out.Write(data)
	return out.Bytes(), sections
}

// translateMarkedText translates the plain runs of a target text node,
// passing embedded CDATA markers through while translating each marked
// section's contents so they round-trip through the same cache in
// document order.
func translateMarkedText(text string, sections []*cdataSection, tr Translator) (string, error) {
	if !strings.Contains(text, cdataMark) {
		return tr(text)
	}

	parts := strings.Split(text, cdataMark)
	var b strings.Builder
	for i, p := range parts {
		if i%2 == 1 {
			idx, err := strconv.Atoi(p)
			if err != nil || idx >= len(sections) {
				return "", errs.WithFormat(errs.Parse, "xml", fmt.Errorf("stray cdata marker %q", p))
			}
			sec := sections[idx]
			sec.inTarget = true
			if strings.TrimSpace(sec.content) != "" {
				translated, err := tr(sec.content)
				if err != nil {
					return "", err
				}
				sec.translated = translated
			}
			b.WriteString(cdataMark + p + cdataMark)
			continue
		}
		if strings.TrimSpace(p) == "" {
			b.WriteString(p)
			continue
		}
		translated, err := tr(p)
		if err != nil {
			return "", err
		}
		b.WriteString(translated)
	}
	return b.String(), nil
}

// restoreCDATA splices every marker back into a delimited CDATA section,
// using the translated contents where the section sat inside a target
// element.
func restoreCDATA(data []byte, sections []*cdataSection) []byte {
	for idx, sec := range sections {
		marker := fmt.Sprintf("%s%d%s", cdataMark, idx, cdataMark)
		content := sec.content
		if sec.inTarget && sec.translated != "" {
			content = sec.translated
		}
		data = bytes.ReplaceAll(data, []byte(marker), []byte("<![CDATA["+content+"]]>"))
	}
	return data
}

// charsetReader adds legacy windows-1252/latin1 support to the XML
// decoder, since OOXML fragments produced by older Office versions
// sometimes declare it explicitly.
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(charset) {
	case "iso-8859-1", "latin1", "windows-1252", "cp1252":
		return &latin1Reader{r: input}, nil
	case "utf-8", "utf8", "":
		return input, nil
	default:
		return nil, fmt.Errorf("unsupported charset: %s", charset)
	}
}

type latin1Reader struct{ r io.Reader }

func (l *latin1Reader) Read(p []byte) (int, error) {
	maxRead := len(p) / 4
	if maxRead == 0 && len(p) > 0 {
		maxRead = 1
	}
	buf := make([]byte, maxRead)
	n, err := l.r.Read(buf)

	written := 0
	for i := 0; i < n; i++ {
		r := rune(buf[i])
		if buf[i] >= 0x80 {
			r = windows1252Table[buf[i]-0x80]
		}
		if written+utf8.RuneLen(r) > len(p) {
			break
		}
		written += utf8.EncodeRune(p[written:], r)
	}
	return written, err
}

var windows1252Table = [128]rune{
	0x20AC, 0x0081, 0x201A, 0x0192, 0x201E, 0x2026, 0x2020, 0x2021, 0x02C6, 0x2030, 0x0160, 0x2039, 0x0152, 0x008D, 0x017D, 0x008F,
	0x0090, 0x2018, 0x2019, 0x201C, 0x201D, 0x2022, 0x2013, 0x2014, 0x02DC, 0x2122, 0x0161, 0x203A, 0x0153, 0x009D, 0x017E, 0x0178,
	0x00A0, 0x00A1, 0x00A2, 0x00A3, 0x00A4, 0x00A5, 0x00A6, 0x00A7, 0x00A8, 0x00A9, 0x00AA, 0x00AB, 0x00AC, 0x00AD, 0x00AE, 0x00AF,
	0x00B0, 0x00B1, 0x00B2, 0x00B3, 0x00B4, 0x00B5, 0x00B6, 0x00B7, 0x00B8, 0x00B9, 0x00BA, 0x00BB, 0x00BC, 0x00BD, 0x00BE, 0x00BF,
	0x00C0, 0x00C1, 0x00C2, 0x00C3, 0x00C4, 0x00C5, 0x00C6, 0x00C7, 0x00C8, 0x00C9, 0x00CA, 0x00CB, 0x00CC, 0x00CD, 0x00CE, 0x00CF,
	0x00D0, 0x00D1, 0x00D2, 0x00D3, 0x00D4, 0x00D5, 0x00D6, 0x00D7, 0x00D8, 0x00D9, 0x00DA, 0x00DB, 0x00DC, 0x00DD, 0x00DE, 0x00DF,
	0x00E0, 0x00E1, 0x00E2, 0x00E3, 0x00E4, 0x00E5, 0x00E6, 0x00E7, 0x00E8, 0x00E9, 0x00EA, 0x00EB, 0x00EC, 0x00ED, 0x00EE, 0x00EF,
	0x00F0, 0x00F1, 0x00F2, 0x00F3, 0x00F4, 0x00F5, 0x00F6, 0x00F7, 0x00F8, 0x00F9, 0x00FA, 0x00FB, 0x00FC, 0x00FD, 0x00FE, 0x00FF,
}
