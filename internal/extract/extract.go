package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

const (
	// MethodPages is per-page extraction; MethodDocument is the whole-document
	// plain text pass used when no page yields text.
	MethodPages    = "ledongthuc/pdf"
	MethodDocument = "ledongthuc/pdf:document"

	minTextChars = 10
)

// ErrTextTooShort reports a PDF that opened but produced no usable text.
var ErrTextTooShort = errors.New("no text extracted or text too short")

// Result is the outcome of PDF text extraction. Success is true only when more
// than 10 non-space characters were recovered.
type Result struct {
	Text       string `json:"text"`
	PageCount  int    `json:"page_count"`
	MethodUsed string `json:"method_used"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

// Validation describes whether bytes parse as a PDF.
type Validation struct {
	IsValid   bool   `json:"is_valid"`
	Error     string `json:"error,omitempty"`
	FileSize  int    `json:"file_size"`
	PageCount int    `json:"page_count"`
}

// Validate opens data as a PDF and reports its page count.
func Validate(data []byte) Validation {
	v := Validation{FileSize: len(data)}
	r, err := open(data)
	if err != nil {
		v.Error = fmt.Sprintf("Invalid PDF file: %s", err)
		return v
	}
	v.PageCount = r.NumPage()
	v.IsValid = true
	return v
}

// PDF extracts plain text from data. Pages are joined with a blank line. It never
// returns an error; failures are reported in Result.Error.
func PDF(ctx context.Context, data []byte) Result {
	res := Result{MethodUsed: MethodPages}
	if err := ctx.Err(); err != nil {
		res.Error = err.Error()
		return res
	}
	r, err := open(data)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.PageCount = r.NumPage()

	text, err := extractPages(ctx, r)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	if tooShort(text) {
		if doc, docErr := extractDocument(r); docErr == nil && utf8.RuneCountInString(doc) > utf8.RuneCountInString(text) {
			text = doc
			res.MethodUsed = MethodDocument
		}
	}
	if tooShort(text) {
		res.Error = ErrTextTooShort.Error()
		return res
	}
	res.Text = text
	res.Success = true
	return res
}

// tooShort reports whether trimmed text has at most minTextChars characters.
func tooShort(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) <= minTextChars
}

func open(data []byte) (r *pdf.Reader, err error) {
	if len(data) == 0 {
		return nil, errors.New("empty pdf data")
	}
	// the parser panics on some malformed cross-reference tables
	defer func() {
		if rec := recover(); rec != nil {
			r = nil
			err = fmt.Errorf("malformed pdf: %v", rec)
		}
	}()
	return pdf.NewReader(bytes.NewReader(data), int64(len(data)))
}

func extractPages(ctx context.Context, r *pdf.Reader) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = fmt.Errorf("pdf page extraction failed: %v", rec)
		}
	}()
	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		b.WriteString(pageText)
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String()), nil
}

func extractDocument(r *pdf.Reader) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = fmt.Errorf("pdf document extraction failed: %v", rec)
		}
	}()
	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}
