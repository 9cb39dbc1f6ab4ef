package signatures

import (
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/miradorstack/failure-insights/internal/models"
)

// SelectorAll selects every record regardless of signature.
const SelectorAll = "all"

// Catalog is the ordered set of distinct signatures seen in one view.
// A Catalog is immutable once built and safe for concurrent reads.
type Catalog struct {
	entries     []models.SignatureCatalogEntry
	bySignature map[string]int
	byID        map[string]int
}

// BuildCatalog scans records in order and assigns an identifier to every new signature.
// Records without log lines, or whose lines normalize to nothing, are skipped.
func BuildCatalog(records []models.FailureRecord) *Catalog {
	c := newCatalog(len(records))
	for _, record := range records {
		if len(record.LogLines) == 0 {
			continue
		}
		sig := NormalizeLines(record.LogLines)
		if sig == "" {
			continue
		}
		c.add(sig, "")
	}
	return c
}

// NewCatalog rebuilds a catalog from previously issued entries, keeping their identifiers.
// Duplicate signatures or identifiers after the first are ignored.
func NewCatalog(entries []models.SignatureCatalogEntry) *Catalog {
	c := newCatalog(len(entries))
	for _, entry := range entries {
		if entry.Signature == "" || entry.ID == "" {
			continue
		}
		if _, ok := c.byID[entry.ID]; ok {
			continue
		}
		c.add(entry.Signature, entry.ID)
	}
	return c
}

func newCatalog(capacity int) *Catalog {
	return &Catalog{
		entries:     make([]models.SignatureCatalogEntry, 0, capacity),
		bySignature: make(map[string]int, capacity),
		byID:        make(map[string]int, capacity),
	}
}

func (c *Catalog) add(signature, id string) {
	if _, ok := c.bySignature[signature]; ok {
		return
	}
	if id == "" {
		id = c.uniqueID(signature)
	}
	c.bySignature[signature] = len(c.entries)
	c.byID[id] = len(c.entries)
	c.entries = append(c.entries, models.SignatureCatalogEntry{Signature: signature, ID: id})
}

func (c *Catalog) uniqueID(signature string) string {
	base := SignatureID(signature)
	id := base
	for n := 2; ; n++ {
		if _, taken := c.byID[id]; !taken {
			return id
		}
		id = base + "-" + strconv.Itoa(n)
	}
}

// SignatureID is the hash-derived identifier of a signature.
func SignatureID(signature string) string {
	return strconv.FormatUint(xxhash.Sum64String(signature), 16)
}

// Entries returns a copy of the catalog in first-appearance order.
func (c *Catalog) Entries() []models.SignatureCatalogEntry {
	if c == nil {
		return nil
	}
	return append([]models.SignatureCatalogEntry(nil), c.entries...)
}

// Len returns the number of distinct signatures.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// IDFor returns the identifier assigned to signature.
func (c *Catalog) IDFor(signature string) (string, bool) {
	if c == nil {
		return "", false
	}
	idx, ok := c.bySignature[signature]
	if !ok {
		return "", false
	}
	return c.entries[idx].ID, true
}

// SignatureFor returns the signature behind id.
func (c *Catalog) SignatureFor(id string) (string, bool) {
	if c == nil {
		return "", false
	}
	idx, ok := c.byID[id]
	if !ok {
		return "", false
	}
	return c.entries[idx].Signature, true
}
