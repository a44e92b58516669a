package restapi

import (
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/storekeep/storekeep/internal/domain/account"
	"github.com/storekeep/storekeep/internal/domain/product"
)

// The backend serves duck-typed JSON shapes; the decoders here coerce them
// into explicit records so the rest of the program never has to trust shape
// at use sites. Numbers may arrive as JSON numbers or numeric strings.

func encodeProduct(p product.Product, includeID bool) []byte {
	var e jx.Encoder
	e.ObjStart()
	if includeID {
		e.FieldStart("id")
		e.Str(p.ID)
	}
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("category")
	e.Str(string(p.Category))
	e.FieldStart("price")
	e.Num(jx.Num(p.Price.String()))
	e.FieldStart("stock")
	e.Int(p.Stock)
	e.FieldStart("description")
	e.Str(p.Description)
	if p.URL != "" {
		e.FieldStart("url")
		e.Str(p.URL)
	}
	if !p.UpdatedAt.IsZero() {
		e.FieldStart("lastUpdated")
		e.Str(p.UpdatedAt.UTC().Format(time.RFC3339))
	}
	e.ObjEnd()
	return e.Bytes()
}

func decodeProducts(data []byte) ([]product.Product, error) {
	d := jx.DecodeBytes(data)
	var items []product.Product
	if err := d.Arr(func(d *jx.Decoder) error {
		p, err := decodeProductObj(d)
		if err != nil {
			return err
		}
		items = append(items, p)
		return nil
	}); err != nil {
		return nil, err
	}
	return items, nil
}

func decodeProduct(data []byte) (product.Product, error) {
	return decodeProductObj(jx.DecodeBytes(data))
}

func decodeProductObj(d *jx.Decoder) (product.Product, error) {
	var p product.Product
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			s, err := decodeFlexString(d)
			if err != nil {
				return errors.Wrap(err, "id")
			}
			p.ID = s
			return nil
		case "name":
			s, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "name")
			}
			p.Name = s
			return nil
		case "category":
			s, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "category")
			}
			p.Category = product.Category(s)
			return nil
		case "price":
			dec, err := decodeFlexDecimal(d)
			if err != nil {
				return errors.Wrap(err, "price")
			}
			p.Price = dec
			return nil
		case "stock":
			n, err := d.Num()
			if err != nil {
				return errors.Wrap(err, "stock")
			}
			v, err := n.Int64()
			if err != nil {
				return errors.Wrap(err, "stock")
			}
			p.Stock = int(v)
			return nil
		case "description":
			s, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "description")
			}
			p.Description = s
			return nil
		case "url":
			if d.Next() == jx.Null {
				return d.Null()
			}
			s, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "url")
			}
			p.URL = s
			return nil
		case "lastUpdated":
			if d.Next() == jx.Null {
				return d.Null()
			}
			s, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "lastUpdated")
			}
			// A malformed timestamp from the mock backend is treated as
			// absent rather than failing the whole record.
			if t, perr := time.Parse(time.RFC3339, s); perr == nil {
				p.UpdatedAt = t
			}
			return nil
		default:
			return d.Skip()
		}
	})
	return p, err
}

func decodeAccounts(data []byte) ([]account.Account, error) {
	d := jx.DecodeBytes(data)
	var accounts []account.Account
	if err := d.Arr(func(d *jx.Decoder) error {
		var a account.Account
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "username":
				s, err := d.Str()
				if err != nil {
					return err
				}
				a.Username = s
				return nil
			case "password":
				s, err := d.Str()
				if err != nil {
					return err
				}
				a.Password = s
				return nil
			case "role":
				s, err := d.Str()
				if err != nil {
					return err
				}
				a.Role = account.Role(s)
				return nil
			default:
				return d.Skip()
			}
		}); err != nil {
			return err
		}
		accounts = append(accounts, a)
		return nil
	}); err != nil {
		return nil, err
	}
	return accounts, nil
}

// decodeFlexString accepts a string or a bare number and returns its textual
// form. json-server assigns numeric ids; we normalize them to strings.
func decodeFlexString(d *jx.Decoder) (string, error) {
	if d.Next() == jx.String {
		return d.Str()
	}
	n, err := d.Num()
	if err != nil {
		return "", err
	}
	return strings.Trim(string(n), `"`), nil
}

// decodeFlexDecimal accepts a number or a numeric string.
func decodeFlexDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	n, err := d.Num()
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromString(strings.Trim(string(n), `"`))
}
