package pubchem

import "encoding/json"

// Compound holds the property record served by the PUG REST property
// endpoint. Field order is the serialization order for JSON output.
type Compound struct {
	IUPACName        string `json:"IUPACName"`
	MolecularFormula string `json:"MolecularFormula"`
	MolecularWeight  string `json:"MolecularWeight"`
	CanonicalSMILES  string `json:"CanonicalSMILES"`
	InChI            string `json:"InChI"`
	InChIKey         string `json:"InChIKey"`
	CID              string `json:"CID"`
}

// flexString absorbs PUG REST fields that arrive as either a JSON string or a
// number, such as CID and MolecularWeight.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// propertyResponse is the shape of /compound/.../property/.../JSON.
type propertyResponse struct {
	PropertyTable struct {
		Properties []struct {
			CID              flexString `json:"CID"`
			IUPACName        string     `json:"IUPACName"`
			MolecularFormula string     `json:"MolecularFormula"`
			MolecularWeight  flexString `json:"MolecularWeight"`
			CanonicalSMILES  string     `json:"CanonicalSMILES"`
			InChI            string     `json:"InChI"`
			InChIKey         string     `json:"InChIKey"`
		} `json:"Properties"`
	} `json:"PropertyTable"`
}

// faultResponse is the PUG REST error envelope.
type faultResponse struct {
	Fault struct {
		Code    string   `json:"Code"`
		Message string   `json:"Message"`
		Details []string `json:"Details"`
	} `json:"Fault"`
}
