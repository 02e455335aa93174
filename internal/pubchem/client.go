// Package pubchem fetches compound data from the PubChem PUG REST API and
// renders it as JSON, CSV, or XYZ.
package pubchem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/molbridge/pubchem-mcp/internal/cache"
	"github.com/molbridge/pubchem-mcp/internal/model"
	"github.com/molbridge/pubchem-mcp/internal/xyz"
)

// DefaultBaseURL is the production PUG REST endpoint.
const DefaultBaseURL = "https://pubchem.ncbi.nlm.nih.gov/rest/pug"

// Defaults applied when an Options field is zero.
const (
	DefaultRetries        = 3
	DefaultPropertyWait   = 10 * time.Second
	DefaultStructureWait  = 60 * time.Second
	DefaultIdentifierWait = 30 * time.Second
)

var (
	// ErrCompoundNotFound is returned when PubChem has no record for a query.
	ErrCompoundNotFound = errors.New("compound not found or no data available")

	// ErrNo3DStructure is returned when a compound has no usable 3D record.
	ErrNo3DStructure = errors.New("failed to generate 3D structure")
)

// cidPattern distinguishes numeric CID queries from compound names.
var cidPattern = regexp.MustCompile(`^\d+$`)

// propertyList is the comma-joined property selector for the lookup endpoint.
var propertyList = strings.Join([]string{
	"IUPACName",
	"MolecularFormula",
	"MolecularWeight",
	"CanonicalSMILES",
	"InChI",
	"InChIKey",
}, ",")

// Options configure a Client. Zero values fall back to defaults; DB is
// optional and disables persistent caching when nil.
type Options struct {
	BaseURL        string
	Retries        int
	PropertyWait   time.Duration
	StructureWait  time.Duration
	IdentifierWait time.Duration
	DB             *cache.DB
}

// Client talks to PUG REST with retry on 429 and 5xx responses and caches
// results in memory and, when configured, in SQLite.
type Client struct {
	http    *http.Client
	baseURL string
	logger  *slog.Logger
	db      *cache.DB

	propertyWait   time.Duration
	structureWait  time.Duration
	identifierWait time.Duration

	mu  sync.Mutex
	mem map[string]Compound
}

// NewClient creates a PubChem client.
func NewClient(logger *slog.Logger, opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Retries <= 0 {
		opts.Retries = DefaultRetries
	}
	if opts.PropertyWait <= 0 {
		opts.PropertyWait = DefaultPropertyWait
	}
	if opts.StructureWait <= 0 {
		opts.StructureWait = DefaultStructureWait
	}
	if opts.IdentifierWait <= 0 {
		opts.IdentifierWait = DefaultIdentifierWait
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = opts.Retries
	rc.Logger = nil

	return &Client{
		http:           rc.StandardClient(),
		baseURL:        strings.TrimSuffix(opts.BaseURL, "/"),
		logger:         logger.With("component", "pubchem"),
		db:             opts.DB,
		propertyWait:   opts.PropertyWait,
		structureWait:  opts.StructureWait,
		identifierWait: opts.IdentifierWait,
		mem:            make(map[string]Compound),
	}
}

// Fetch resolves a query and renders it in the requested format. It satisfies
// the engine's work function contract.
func (c *Client) Fetch(ctx context.Context, p model.Params) (string, error) {
	cp, err := c.Lookup(ctx, p.Query)
	if err != nil {
		return "", err
	}

	switch p.Format {
	case model.FormatCSV:
		return renderCSV(cp)
	case model.FormatXYZ:
		return c.XYZ(ctx, cp)
	default:
		return renderJSON(cp)
	}
}

// Lookup resolves a compound name or numeric CID to its property record,
// consulting the in-memory cache, then the persistent cache, then PUG REST.
func (c *Client) Lookup(ctx context.Context, query string) (Compound, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Compound{}, model.ErrEmptyQuery
	}

	isCID := cidPattern.MatchString(query)
	key := cacheKey(query, isCID)

	c.mu.Lock()
	cp, ok := c.mem[key]
	c.mu.Unlock()
	if ok {
		return cp, nil
	}

	if c.db != nil {
		row, ok, err := c.db.GetCompound(ctx, key)
		if err != nil {
			c.logger.Warn("persistent cache read failed", "key", key, "error", err)
		} else if ok {
			cp := fromRow(row)
			c.remember(key, cp)
			return cp, nil
		}
	}

	cp, err := c.fetchProperties(ctx, query, isCID)
	if err != nil {
		return Compound{}, err
	}

	c.remember(key, cp)
	if c.db != nil {
		if err := c.db.PutCompound(ctx, key, toRow(cp)); err != nil {
			c.logger.Warn("persistent cache write failed", "key", key, "error", err)
		}
	}
	return cp, nil
}

// remember stores the record under its cache key and, for name lookups, under
// the resolved CID key as well.
func (c *Client) remember(key string, cp Compound) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mem[key] = cp
	if cidKey := "cid:" + cp.CID; cp.CID != "" && cidKey != key {
		c.mem[cidKey] = cp
	}
}

func cacheKey(query string, isCID bool) string {
	if isCID {
		return "cid:" + query
	}
	return "name:" + strings.ToLower(query)
}

func (c *Client) fetchProperties(ctx context.Context, query string, isCID bool) (Compound, error) {
	identifier := "name/" + url.PathEscape(query)
	if isCID {
		identifier = "cid/" + query
	}
	u := fmt.Sprintf("%s/compound/%s/property/%s/JSON", c.baseURL, identifier, propertyList)

	ctx, cancel := context.WithTimeout(ctx, c.propertyWait)
	defer cancel()

	body, err := c.get(ctx, u)
	if err != nil {
		return Compound{}, err
	}

	var pr propertyResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return Compound{}, fmt.Errorf("decode property response: %w", err)
	}
	if len(pr.PropertyTable.Properties) == 0 {
		return Compound{}, ErrCompoundNotFound
	}

	p := pr.PropertyTable.Properties[0]
	cid := string(p.CID)
	if isCID {
		cid = query
	}
	if cid == "" {
		return Compound{}, ErrCompoundNotFound
	}

	return Compound{
		IUPACName:        p.IUPACName,
		MolecularFormula: p.MolecularFormula,
		MolecularWeight:  string(p.MolecularWeight),
		CanonicalSMILES:  p.CanonicalSMILES,
		InChI:            p.InChI,
		InChIKey:         p.InChIKey,
		CID:              cid,
	}, nil
}

// XYZ returns the compound's 3D structure as an XYZ document, downloading and
// parsing the PubChem SDF record on a cache miss.
func (c *Client) XYZ(ctx context.Context, cp Compound) (string, error) {
	if c.db != nil {
		doc, ok, err := c.db.GetStructure(ctx, cp.CID)
		if err != nil {
			c.logger.Warn("structure cache read failed", "cid", cp.CID, "error", err)
		} else if ok {
			return doc, nil
		}
	}

	sdf, err := c.DownloadSDF(ctx, cp.CID)
	if err != nil {
		if errors.Is(err, ErrCompoundNotFound) {
			return "", ErrNo3DStructure
		}
		return "", err
	}

	atoms, err := xyz.ParseSDF(sdf)
	if err != nil {
		c.logger.Warn("SDF parse failed", "cid", cp.CID, "error", err)
		return "", ErrNo3DStructure
	}

	doc := xyz.Document{
		Info: xyz.InfoLine([][2]string{
			{"id", cp.CID},
			{"name", cp.IUPACName},
			{"formula", cp.MolecularFormula},
			{"smiles", cp.CanonicalSMILES},
			{"inchikey", cp.InChIKey},
		}),
		Atoms: atoms,
	}
	rendered := doc.String()

	if c.db != nil {
		if err := c.db.PutStructure(ctx, cp.CID, rendered); err != nil {
			c.logger.Warn("structure cache write failed", "cid", cp.CID, "error", err)
		}
	}
	return rendered, nil
}

// DownloadSDF fetches the 3D SDF record for a CID.
func (c *Client) DownloadSDF(ctx context.Context, cid string) (string, error) {
	u := fmt.Sprintf("%s/compound/cid/%s/record/SDF/?record_type=3d&response_type=display&display_type=sdf", c.baseURL, cid)

	ctx, cancel := context.WithTimeout(ctx, c.structureWait)
	defer cancel()

	body, err := c.get(ctx, u)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// CIDBySMILES resolves a SMILES string to a PubChem CID.
func (c *Client) CIDBySMILES(ctx context.Context, smiles string) (string, error) {
	return c.firstCID(ctx, "smiles/"+url.PathEscape(smiles))
}

// CIDByInChIKey resolves an InChIKey to a PubChem CID.
func (c *Client) CIDByInChIKey(ctx context.Context, inchikey string) (string, error) {
	return c.firstCID(ctx, "inchikey/"+url.PathEscape(inchikey))
}

func (c *Client) firstCID(ctx context.Context, identifier string) (string, error) {
	u := fmt.Sprintf("%s/compound/%s/cids/TXT", c.baseURL, identifier)

	ctx, cancel := context.WithTimeout(ctx, c.identifierWait)
	defer cancel()

	body, err := c.get(ctx, u)
	if err != nil {
		return "", err
	}

	cid, _, _ := strings.Cut(strings.TrimSpace(string(body)), "\n")
	cid = strings.TrimSpace(cid)
	if cid == "" || cid == "0" {
		return "", ErrCompoundNotFound
	}
	return cid, nil
}

// get performs one request and maps non-200 responses to errors, decoding the
// PUG REST fault envelope for a readable message when present.
func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pubchem request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrCompoundNotFound, faultMessage(body, resp.Status))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pubchem: %s", faultMessage(body, resp.Status))
	}
	return body, nil
}

func faultMessage(body []byte, fallback string) string {
	var fr faultResponse
	if err := json.Unmarshal(body, &fr); err == nil {
		if len(fr.Fault.Details) > 0 {
			return fr.Fault.Details[0]
		}
		if fr.Fault.Message != "" {
			return fr.Fault.Message
		}
	}
	return fallback
}

func toRow(cp Compound) cache.Compound {
	return cache.Compound{
		CID:              cp.CID,
		IUPACName:        cp.IUPACName,
		MolecularFormula: cp.MolecularFormula,
		MolecularWeight:  cp.MolecularWeight,
		CanonicalSMILES:  cp.CanonicalSMILES,
		InChI:            cp.InChI,
		InChIKey:         cp.InChIKey,
	}
}

func fromRow(row cache.Compound) Compound {
	return Compound{
		CID:              row.CID,
		IUPACName:        row.IUPACName,
		MolecularFormula: row.MolecularFormula,
		MolecularWeight:  row.MolecularWeight,
		CanonicalSMILES:  row.CanonicalSMILES,
		InChI:            row.InChI,
		InChIKey:         row.InChIKey,
	}
}
