// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "encoding/json"

// ExchangeCountryUS is the fixed exchange_country value for this source
// domain. Every committed idea record carries it.
const ExchangeCountryUS = "US"

// ideaFieldNames are the JSON keys owned by IdeaRecord itself. Extra
// fields never shadow them.
var ideaFieldNames = map[string]bool{
	"ticker":           true,
	"exchange_country": true,
	"company":          true,
	"exchange":         true,
	"sector":           true,
	"industry":         true,
	"market":           true,
	"thesis":           true,
}

// IdeaRecord is one fully validated, queue-ready record. Ticker and
// ExchangeCountry are required; the rest is filled when available.
// Extra carries unknown selection-provided fields through to the queue
// so consumers that understand them are not starved; forbidden
// provenance keys are stripped by the queue writer before commit.
type IdeaRecord struct {
	Ticker          string
	ExchangeCountry string
	Company         string
	Exchange        string
	Sector          string
	Industry        string
	Market          string
	Thesis          string

	Extra map[string]json.RawMessage
}

// MarshalJSON flattens the record and its extra fields into one object.
func (r IdeaRecord) MarshalJSON() ([]byte, error) {
	obj := make(map[string]json.RawMessage, len(ideaFieldNames)+len(r.Extra))
	for k, v := range r.Extra {
		if !ideaFieldNames[k] {
			obj[k] = v
		}
	}

	set := func(key, value string) {
		raw, _ := json.Marshal(value)
		obj[key] = raw
	}
	set("ticker", r.Ticker)
	set("exchange_country", r.ExchangeCountry)
	if r.Company != "" {
		set("company", r.Company)
	}
	if r.Exchange != "" {
		set("exchange", r.Exchange)
	}
	if r.Sector != "" {
		set("sector", r.Sector)
	}
	if r.Industry != "" {
		set("industry", r.Industry)
	}
	if r.Market != "" {
		set("market", r.Market)
	}
	if r.Thesis != "" {
		set("thesis", r.Thesis)
	}
	return json.Marshal(obj)
}

// UnmarshalJSON splits an object into the known fields and Extra.
func (r *IdeaRecord) UnmarshalJSON(data []byte) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}

	get := func(key string) string {
		raw, ok := obj[key]
		if !ok {
			return ""
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	}
	r.Ticker = get("ticker")
	r.ExchangeCountry = get("exchange_country")
	r.Company = get("company")
	r.Exchange = get("exchange")
	r.Sector = get("sector")
	r.Industry = get("industry")
	r.Market = get("market")
	r.Thesis = get("thesis")

	r.Extra = nil
	for k, v := range obj {
		if ideaFieldNames[k] {
			continue
		}
		if r.Extra == nil {
			r.Extra = make(map[string]json.RawMessage)
		}
		r.Extra[k] = v
	}
	return nil
}

// SelectionEntry is one externally supplied idea: which fetched ticker
// to promote and with what thesis. Unknown fields are retained in Extra
// so the queue writer can carry or strip them.
type SelectionEntry struct {
	Ticker   string
	Thesis   string
	Company  string
	Exchange string
	Sector   string
	Industry string

	Extra map[string]json.RawMessage
}

var selectionFieldNames = map[string]bool{
	"ticker":   true,
	"thesis":   true,
	"company":  true,
	"exchange": true,
	"sector":   true,
	"industry": true,
}

// UnmarshalJSON splits an entry into the known fields and Extra.
func (e *SelectionEntry) UnmarshalJSON(data []byte) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}

	get := func(key string) string {
		raw, ok := obj[key]
		if !ok {
			return ""
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	}
	e.Ticker = get("ticker")
	e.Thesis = get("thesis")
	e.Company = get("company")
	e.Exchange = get("exchange")
	e.Sector = get("sector")
	e.Industry = get("industry")

	e.Extra = nil
	for k, v := range obj {
		if selectionFieldNames[k] {
			continue
		}
		if e.Extra == nil {
			e.Extra = make(map[string]json.RawMessage)
		}
		e.Extra[k] = v
	}
	return nil
}
