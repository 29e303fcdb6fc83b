package order

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// AddressKind tags which variant of Address is set.
type AddressKind uint8

const (
	AddressNone AddressKind = iota
	AddressFreeform
	AddressStructured
)

// StructuredAddress is a delivery address captured field by field.
type StructuredAddress struct {
	Street  string
	Area    string
	City    string
	Zone    string
	Country string
}

// Address is either a free-form line or a structured address. Stored orders
// carry both shapes, so the variant is resolved once when decoding.
type Address struct {
	Kind       AddressKind
	Freeform   string
	Structured StructuredAddress
}

// NewFreeformAddress returns a free-form Address.
func NewFreeformAddress(s string) Address {
	return Address{Kind: AddressFreeform, Freeform: s}
}

// NewStructuredAddress returns a structured Address.
func NewStructuredAddress(s StructuredAddress) Address {
	return Address{Kind: AddressStructured, Structured: s}
}

// Render formats the address as a single display line.
func (a Address) Render() string {
	switch a.Kind {
	case AddressFreeform:
		return strings.TrimSpace(a.Freeform)
	case AddressStructured:
		s := a.Structured
		parts := make([]string, 0, 5)
		for _, p := range []string{s.Street, s.Area, s.City, s.Zone, s.Country} {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return ""
	}
}

// Decode decodes Address from json. Strings become free-form addresses,
// objects become structured ones and null leaves the address empty.
func (a *Address) Decode(d *jx.Decoder) error {
	if a == nil {
		return errors.New("invalid: unable to decode Address to nil")
	}
	switch tt := d.Next(); tt {
	case jx.Null:
		*a = Address{}
		return d.Null()
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return errors.Wrap(err, "decode freeform address")
		}
		*a = NewFreeformAddress(s)
		return nil
	case jx.Object:
		var s StructuredAddress
		if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
			var dst *string
			switch string(key) {
			case "street", "line1":
				dst = &s.Street
			case "area", "suburb":
				dst = &s.Area
			case "city":
				dst = &s.City
			case "zone", "province", "postal_code":
				dst = &s.Zone
			case "country":
				dst = &s.Country
			default:
				return d.Skip()
			}
			v, err := optString(d)
			if err != nil {
				return errors.Wrapf(err, "decode field %q", key)
			}
			*dst = v
			return nil
		}); err != nil {
			return errors.Wrap(err, "decode structured address")
		}
		*a = NewStructuredAddress(s)
		return nil
	default:
		return errors.Errorf("unexpected json type %q for address", tt)
	}
}

// Encode encodes Address as json, keeping the variant's shape.
func (a Address) Encode(e *jx.Encoder) {
	switch a.Kind {
	case AddressFreeform:
		e.Str(a.Freeform)
	case AddressStructured:
		s := a.Structured
		e.ObjStart()
		e.FieldStart("street")
		e.Str(s.Street)
		e.FieldStart("area")
		e.Str(s.Area)
		e.FieldStart("city")
		e.Str(s.City)
		e.FieldStart("zone")
		e.Str(s.Zone)
		e.FieldStart("country")
		e.Str(s.Country)
		e.ObjEnd()
	default:
		e.Null()
	}
}

// optString reads a string that may be null.
func optString(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Null {
		return "", d.Null()
	}
	return d.Str()
}
