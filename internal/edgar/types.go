package edgar

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Filing is one hit from the EDGAR full-text search index
type Filing struct {
	AccessionNo string
	CompanyName string
	CIK         string
	FormType    string
	ItemCodes   []string
	FiledAt     time.Time
	DocumentURL string
}

// searchResponse mirrors the EDGAR full-text search JSON envelope
type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []searchHit `json:"hits"`
	} `json:"hits"`
}

type searchHit struct {
	// "accession-number:primary-document"
	ID     string       `json:"_id"`
	Source filingSource `json:"_source"`
}

type filingSource struct {
	CIKs         []string `json:"ciks"`
	DisplayNames []string `json:"display_names"`
	FileType     string   `json:"file_type"`
	FileDate     string   `json:"file_date"` // "2006-01-02"
	Items        []string `json:"items"`
	AccessionNo  string   `json:"adsh"`
}

// display_names entries look like "Acme Robotics, Inc.  (ACME)  (CIK 0001234567)"
var displayNamePattern = regexp.MustCompile(`^(.*?)\s*(?:\(([A-Z.]+)\))?\s*\(CIK\s+(\d+)\)\s*$`)

// toFiling converts a search hit to a Filing. Returns an error for hits
// missing the fields the pipeline depends on.
func (h *searchHit) toFiling(archiveBase string) (*Filing, error) {
	accession := h.Source.AccessionNo
	document := ""
	if parts := strings.SplitN(h.ID, ":", 2); len(parts) == 2 {
		if accession == "" {
			accession = parts[0]
		}
		document = parts[1]
	}
	if accession == "" {
		return nil, fmt.Errorf("search hit %q has no accession number", h.ID)
	}

	filedAt, err := time.Parse("2006-01-02", h.Source.FileDate)
	if err != nil {
		return nil, fmt.Errorf("search hit %s has invalid file date %q", accession, h.Source.FileDate)
	}

	name := ""
	cik := ""
	if len(h.Source.DisplayNames) > 0 {
		name = h.Source.DisplayNames[0]
		if m := displayNamePattern.FindStringSubmatch(name); m != nil {
			name = strings.TrimSpace(m[1])
			cik = m[3]
		}
	}
	if cik == "" && len(h.Source.CIKs) > 0 {
		cik = h.Source.CIKs[0]
	}
	if name == "" {
		return nil, fmt.Errorf("search hit %s has no company name", accession)
	}

	filing := &Filing{
		AccessionNo: accession,
		CompanyName: name,
		CIK:         cik,
		FormType:    h.Source.FileType,
		ItemCodes:   h.Source.Items,
		FiledAt:     filedAt,
	}
	if document != "" && cik != "" {
		filing.DocumentURL = fmt.Sprintf("%s/%s/%s/%s",
			archiveBase,
			strings.TrimLeft(cik, "0"),
			strings.ReplaceAll(accession, "-", ""),
			document)
	}
	return filing, nil
}
