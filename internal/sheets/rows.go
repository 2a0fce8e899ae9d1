package sheets

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/inovacc/finzana/internal/model"
	"github.com/jinzhu/copier"
	"github.com/shopspring/decimal"
)

// ClientRow is a decoded line of the clients sheet. Columns are matched
// by header name.
type ClientRow struct {
	CURP          string
	Nombre        string
	Telefono      string
	Grupo         string
	Direccion     string
	FechaRegistro time.Time
	RegistradoPor string
}

// CreditRow is a decoded line of the placements sheet. Columns are
// positional: id, curp, monto, plazo, fecha, vencimiento, pago semanal.
type CreditRow struct {
	ID          string
	CURP        string
	Monto       decimal.Decimal
	Plazo       int
	Fecha       time.Time
	Vencimiento time.Time
	PagoSemanal decimal.Decimal
}

// PaymentRow is a decoded line of the collections sheet. Columns are
// positional: id, credito id, monto, fecha, tipo, comision.
type PaymentRow struct {
	ID        string
	CreditoID string
	Monto     decimal.Decimal
	Fecha     time.Time
	Tipo      string
	Comision  decimal.Decimal
}

// LookupRow is one line of the lookup sheet: a key and its values.
type LookupRow struct {
	Key    string
	Values []string
}

// Lookup sheet keys.
const (
	KeyGrupos       = "grupos"
	KeySemanas      = "semanas"
	KeyTiposUsuario = "tipos_usuario"
	KeyTasaInteres  = "tasa_interes"
)

var clientColumns = map[string][]string{
	"curp":          {"curp"},
	"nombre":        {"nombre", "name", "nombrecompleto"},
	"telefono":      {"telefono", "tel", "celular"},
	"grupo":         {"grupo"},
	"direccion":     {"direccion", "domicilio"},
	"fecharegistro": {"fecharegistro", "fecha", "registro"},
	"registradopor": {"registradopor", "usuario", "promotor"},
}

var headerFolder = strings.NewReplacer(
	" ", "", "_", "", "-", "",
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u",
	"Á", "a", "É", "e", "Í", "i", "Ó", "o", "Ú", "u",
)

func foldHeader(h string) string {
	return strings.ToLower(headerFolder.Replace(strings.TrimSpace(h)))
}

// columnIndex maps each logical client column to its position in header.
func columnIndex(header []string) map[string]int {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		folded := foldHeader(h)
		if _, seen := pos[folded]; !seen {
			pos[folded] = i
		}
	}

	out := make(map[string]int, len(clientColumns))

	for col, aliases := range clientColumns {
		for _, alias := range aliases {
			if i, ok := pos[alias]; ok {
				out[col] = i
				break
			}
		}
	}

	return out
}

// DecodeClients decodes the clients sheet. Rows that fail are reported and
// skipped.
func DecodeClients(sheet string, rows []Row) ([]model.Client, []error) {
	out := []model.Client{}

	var errs []error

	if len(rows) == 0 {
		return out, nil
	}

	cols := columnIndex(rows[0].Header)
	field := func(r Row, col string) string {
		i, ok := cols[col]
		if !ok {
			return ""
		}

		return strings.TrimSpace(r.At(i))
	}

	for _, r := range rows {
		row := ClientRow{
			CURP:          model.NormalizeCURP(field(r, "curp")),
			Nombre:        field(r, "nombre"),
			Telefono:      field(r, "telefono"),
			Grupo:         field(r, "grupo"),
			Direccion:     field(r, "direccion"),
			RegistradoPor: field(r, "registradopor"),
		}

		if row.CURP == "" {
			errs = append(errs, &RowError{Sheet: sheet, Line: r.Line, Field: "curp", Err: ErrMissingField})
			continue
		}

		if raw := field(r, "fecharegistro"); raw != "" {
			t, err := model.ParseDate(raw)
			if err != nil {
				errs = append(errs, &RowError{Sheet: sheet, Line: r.Line, Field: "fechaRegistro", Err: fmt.Errorf("%w: %w", ErrInvalidField, err)})
				continue
			}

			row.FechaRegistro = t
		}

		var c model.Client
		if err := copier.Copy(&c, &row); err != nil {
			errs = append(errs, &RowError{Sheet: sheet, Line: r.Line, Field: "row", Err: err})
			continue
		}

		c.Fuente = model.SourceSheets
		out = append(out, c)
	}

	return out, errs
}

// DecodeCredits decodes the placements sheet. id, curp, monto and
// vencimiento are required; missing trailing columns are zero.
func DecodeCredits(sheet string, rows []Row) ([]model.Credit, []error) {
	out := []model.Credit{}

	var errs []error

	for _, r := range rows {
		row, err := decodeCreditRow(r)
		if err != nil {
			errs = append(errs, rowError(sheet, r, err))
			continue
		}

		var c model.Credit
		if err := copier.Copy(&c, &row); err != nil {
			errs = append(errs, &RowError{Sheet: sheet, Line: r.Line, Field: "row", Err: err})
			continue
		}

		out = append(out, c)
	}

	return out, errs
}

func decodeCreditRow(r Row) (CreditRow, error) {
	var (
		row CreditRow
		err error
	)

	if row.ID, err = required(r, 0, "id"); err != nil {
		return row, err
	}

	curp, err := required(r, 1, "curp")
	if err != nil {
		return row, err
	}

	row.CURP = model.NormalizeCURP(curp)

	if row.Monto, err = requiredMoney(r, 2, "monto"); err != nil {
		return row, err
	}

	if row.Plazo, err = optionalInt(r, 3, "plazo"); err != nil {
		return row, err
	}

	if row.Fecha, err = optionalDate(r, 4, "fecha"); err != nil {
		return row, err
	}

	raw, err := required(r, 5, "vencimiento")
	if err != nil {
		return row, err
	}

	if row.Vencimiento, err = parseDateField(raw, "vencimiento"); err != nil {
		return row, err
	}

	if row.PagoSemanal, err = optionalMoney(r, 6, "pagoSemanal"); err != nil {
		return row, err
	}

	return row, nil
}

// DecodePayments decodes the collections sheet. credito id, monto and
// fecha are required; tipo defaults to normal.
func DecodePayments(sheet string, rows []Row) ([]model.Payment, []error) {
	out := []model.Payment{}

	var errs []error

	for _, r := range rows {
		row, err := decodePaymentRow(r)
		if err != nil {
			errs = append(errs, rowError(sheet, r, err))
			continue
		}

		var p model.Payment
		if err := copier.Copy(&p, &row); err != nil {
			errs = append(errs, &RowError{Sheet: sheet, Line: r.Line, Field: "row", Err: err})
			continue
		}

		out = append(out, p)
	}

	return out, errs
}

func decodePaymentRow(r Row) (PaymentRow, error) {
	var (
		row PaymentRow
		err error
	)

	row.ID = strings.TrimSpace(r.At(0))

	if row.CreditoID, err = required(r, 1, "creditoId"); err != nil {
		return row, err
	}

	if row.Monto, err = requiredMoney(r, 2, "monto"); err != nil {
		return row, err
	}

	raw, err := required(r, 3, "fecha")
	if err != nil {
		return row, err
	}

	if row.Fecha, err = parseDateField(raw, "fecha"); err != nil {
		return row, err
	}

	row.Tipo = strings.ToLower(strings.TrimSpace(r.At(4)))
	if row.Tipo == "" {
		row.Tipo = string(model.PaymentNormal)
	}

	if row.Comision, err = optionalMoney(r, 5, "comision"); err != nil {
		return row, err
	}

	return row, nil
}

// fieldError names the column a decode step failed on.
type fieldError struct {
	field string
	err   error
}

func (e *fieldError) Error() string { return e.field + ": " + e.err.Error() }
func (e *fieldError) Unwrap() error { return e.err }

func rowError(sheet string, r Row, err error) error {
	re := &RowError{Sheet: sheet, Line: r.Line, Err: err}

	var fe *fieldError
	if errors.As(err, &fe) {
		re.Field = fe.field
		re.Err = fe.err
	}

	return re
}

func required(r Row, i int, name string) (string, error) {
	v := strings.TrimSpace(r.At(i))
	if v == "" {
		return "", &fieldError{field: name, err: ErrMissingField}
	}

	return v, nil
}

func requiredMoney(r Row, i int, name string) (decimal.Decimal, error) {
	raw, err := required(r, i, name)
	if err != nil {
		return decimal.Zero, err
	}

	return parseMoney(raw, name)
}

func optionalMoney(r Row, i int, name string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(r.At(i))
	if raw == "" {
		return decimal.Zero, nil
	}

	return parseMoney(raw, name)
}

func parseMoney(raw, name string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(strings.TrimPrefix(raw, "$"))

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, &fieldError{field: name, err: fmt.Errorf("%w: %q", ErrInvalidField, raw)}
	}

	return d, nil
}

func optionalInt(r Row, i int, name string) (int, error) {
	raw := strings.TrimSpace(r.At(i))
	if raw == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &fieldError{field: name, err: fmt.Errorf("%w: %q", ErrInvalidField, raw)}
	}

	return n, nil
}

func optionalDate(r Row, i int, name string) (time.Time, error) {
	raw := strings.TrimSpace(r.At(i))
	if raw == "" {
		return time.Time{}, nil
	}

	return parseDateField(raw, name)
}

func parseDateField(raw, name string) (time.Time, error) {
	t, err := model.ParseDate(raw)
	if err != nil {
		return time.Time{}, &fieldError{field: name, err: fmt.Errorf("%w: %w", ErrInvalidField, err)}
	}

	return t, nil
}

// ParseLookup reads the lookup sheet. Every non-blank line is a row, the
// first line included: column 0 is the key and the remaining non-empty
// columns are its values.
func ParseLookup(body string) []LookupRow {
	all, _ := lines(body)
	out := make([]LookupRow, 0, len(all))

	for _, line := range all {
		fields := splitLine(line)

		key := strings.ToLower(strings.TrimSpace(fields[0]))
		if key == "" {
			continue
		}

		row := LookupRow{Key: key}

		for _, v := range fields[1:] {
			if v = strings.TrimSpace(v); v != "" {
				row.Values = append(row.Values, v)
			}
		}

		out = append(out, row)
	}

	return out
}

// ConfigFromLookup builds a Config from lookup rows over the defaults. It
// reports false when no known key was present. Values that cannot be
// parsed are reported and skipped.
func ConfigFromLookup(rows []LookupRow) (model.Config, bool, []error) {
	cfg := model.DefaultConfig()
	found := false

	var errs []error

	for _, row := range rows {
		switch row.Key {
		case KeyGrupos:
			cfg.Grupos = append([]string{}, row.Values...)
			found = true
		case KeyTiposUsuario:
			cfg.TiposUsuario = append([]string{}, row.Values...)
			found = true
		case KeySemanas:
			weeks := []int{}

			for _, v := range row.Values {
				n, err := strconv.Atoi(v)
				if err != nil || n <= 0 {
					errs = append(errs, fmt.Errorf("%s: %w: %q", KeySemanas, ErrInvalidField, v))
					continue
				}

				weeks = append(weeks, n)
			}

			cfg.Semanas = weeks
			found = true
		case KeyTasaInteres:
			if len(row.Values) == 0 {
				continue
			}

			rate, err := parseRate(row.Values[0])
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", KeyTasaInteres, err))
				continue
			}

			cfg.TasaInteres = rate
			found = true
		}
	}

	return cfg, found, errs
}

// parseRate accepts "0.15" or "15%".
func parseRate(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	percent := strings.HasSuffix(s, "%")
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))

	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidField, raw)
	}

	if percent {
		d = d.Div(decimal.NewFromInt(100))
	}

	return d, nil
}
