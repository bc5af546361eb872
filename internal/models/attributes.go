package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

type VariantKind string

const (
	KindIPhone  VariantKind = "IPHONE_VARIANT"
	KindIPad    VariantKind = "IPAD_VARIANT"
	KindMacBook VariantKind = "MACBOOK_VARIANT"
	KindGeneric VariantKind = "GENERIC_VARIANT"
)

// VariantAttributes is implemented by one struct per product family, each
// carrying only the attributes that family has.
type VariantAttributes interface {
	Kind() VariantKind
	Snapshot() VariantSnapshot
}

type IPhoneAttributes struct {
	Color    string `json:"color"`
	ColorHex string `json:"color_hex,omitempty"`
	Memory   string `json:"memory"`
}

func (IPhoneAttributes) Kind() VariantKind { return KindIPhone }

func (a IPhoneAttributes) Snapshot() VariantSnapshot {
	return VariantSnapshot{Color: a.Color, Memory: a.Memory}
}

type IPadAttributes struct {
	Color        string `json:"color"`
	ColorHex     string `json:"color_hex,omitempty"`
	Memory       string `json:"memory"`
	Connectivity string `json:"connectivity"`
}

func (IPadAttributes) Kind() VariantKind { return KindIPad }

func (a IPadAttributes) Snapshot() VariantSnapshot {
	return VariantSnapshot{Color: a.Color, Memory: a.Memory, Connectivity: a.Connectivity}
}

type MacBookAttributes struct {
	Color     string `json:"color"`
	ColorHex  string `json:"color_hex,omitempty"`
	Storage   string `json:"storage"`
	Processor string `json:"processor"`
}

func (MacBookAttributes) Kind() VariantKind { return KindMacBook }

func (a MacBookAttributes) Snapshot() VariantSnapshot {
	return VariantSnapshot{Color: a.Color, Memory: a.Storage}
}

type GenericAttributes struct{}

func (GenericAttributes) Kind() VariantKind { return KindGeneric }

func (GenericAttributes) Snapshot() VariantSnapshot { return VariantSnapshot{} }

// Attributes is the persisted and serialized form of a VariantAttributes:
// {"kind": "...", "data": {...}}. A zero value behaves as GENERIC_VARIANT.
type Attributes struct {
	VariantAttributes
}

type attributesEnvelope struct {
	Kind VariantKind     `json:"kind"`
	Data json.RawMessage `json:"data,omitempty"`
}

func (a Attributes) KindOrGeneric() VariantKind {
	if a.VariantAttributes == nil {
		return KindGeneric
	}
	return a.VariantAttributes.Kind()
}

func (a Attributes) Snapshot() VariantSnapshot {
	if a.VariantAttributes == nil {
		return VariantSnapshot{}
	}
	return a.VariantAttributes.Snapshot()
}

func (a Attributes) MarshalJSON() ([]byte, error) {
	var payload VariantAttributes = GenericAttributes{}
	if a.VariantAttributes != nil {
		payload = a.VariantAttributes
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(attributesEnvelope{Kind: payload.Kind(), Data: data})
}

func (a *Attributes) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		a.VariantAttributes = nil
		return nil
	}

	var env attributesEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return err
	}

	var target VariantAttributes
	switch env.Kind {
	case KindIPhone:
		var v IPhoneAttributes
		if err := decodeData(env.Data, &v); err != nil {
			return err
		}
		target = v
	case KindIPad:
		var v IPadAttributes
		if err := decodeData(env.Data, &v); err != nil {
			return err
		}
		target = v
	case KindMacBook:
		var v MacBookAttributes
		if err := decodeData(env.Data, &v); err != nil {
			return err
		}
		target = v
	case KindGeneric, "":
		target = GenericAttributes{}
	default:
		return fmt.Errorf("unknown variant kind %q", env.Kind)
	}

	a.VariantAttributes = target
	return nil
}

func decodeData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func (a Attributes) Value() (driver.Value, error) {
	b, err := a.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (a *Attributes) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		a.VariantAttributes = nil
		return nil
	case []byte:
		return a.UnmarshalJSON(v)
	case string:
		return a.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("attributes: unsupported scan type %T", src)
	}
}
