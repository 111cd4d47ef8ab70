package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

const (
	ColTime  = "time"
	ColEvent = "event"
)

var (
	ErrInvalidHeader = errors.New("csv header must start with time,event followed by covariate names")
	ErrInvalidRecord = errors.New("invalid csv record")
)

// ReadCSV parses a dataset with the header time,event,<covariate names...>. The event
// column accepts any value understood by strconv.ParseBool.
func ReadCSV(r io.Reader) (*Dataset, error) {
	rd := csv.NewReader(r)
	rd.TrimLeadingSpace = true

	header, err := rd.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoObservations
		}
		return nil, fmt.Errorf("unable to read csv header, %w", err)
	}
	if len(header) < 3 ||
		!strings.EqualFold(header[0], ColTime) ||
		!strings.EqualFold(header[1], ColEvent) {
		return nil, fmt.Errorf("got header %v, %w", header, ErrInvalidHeader)
	}
	names := header[2:]

	var obs []Observation
	for line := 2; ; line++ {
		row, err := rd.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("unable to read csv line %d, %w", line, err)
		}

		t, err := strconv.ParseFloat(row[0], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d time %q, %w", line, row[0], ErrInvalidRecord)
		}
		event, err := strconv.ParseBool(row[1])
		if err != nil {
			return nil, fmt.Errorf("line %d event %q, %w", line, row[1], ErrInvalidRecord)
		}
		cov := make([]float64, len(names))
		for j := range names {
			cov[j], err = strconv.ParseFloat(row[j+2], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d covariate %s %q, %w", line, names[j], row[j+2], ErrInvalidRecord)
			}
		}
		obs = append(obs, Observation{
			ElapsedTime:   t,
			EventObserved: event,
			Covariates:    cov,
		})
	}
	return New(obs, names)
}

// WriteCSV writes the dataset in the format read by ReadCSV in original observation order
func WriteCSV(w io.Writer, d *Dataset) error {
	if d == nil {
		return ErrNoObservations
	}
	wr := csv.NewWriter(w)
	header := append([]string{ColTime, ColEvent}, d.CovariateNames()...)
	if err := wr.Write(header); err != nil {
		return err
	}
	for _, o := range d.obs {
		event := "0"
		if o.EventObserved {
			event = "1"
		}
		row := make([]string, 0, len(header))
		row = append(row, strconv.FormatFloat(o.ElapsedTime, 'f', -1, 64), event)
		for _, c := range o.Covariates {
			row = append(row, strconv.FormatFloat(c, 'f', -1, 64))
		}
		if err := wr.Write(row); err != nil {
			return err
		}
	}
	wr.Flush()
	return wr.Error()
}

type jsonDataset struct {
	CovariateNames []string      `json:"covariate_names"`
	Observations   []Observation `json:"observations"`
}

// MarshalJSON encodes the covariate names and observations
func (d *Dataset) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonDataset{
		CovariateNames: d.CovariateNames(),
		Observations:   d.Observations(),
	})
}

// UnmarshalJSON decodes and validates a dataset written by MarshalJSON
func (d *Dataset) UnmarshalJSON(b []byte) error {
	var jd jsonDataset
	if err := json.Unmarshal(b, &jd); err != nil {
		return fmt.Errorf("unable to decode dataset, %w", err)
	}
	nd, err := New(jd.Observations, jd.CovariateNames)
	if err != nil {
		return err
	}
	*d = *nd
	return nil
}

// ReadJSON decodes a dataset written by MarshalJSON and validates it
func ReadJSON(r io.Reader) (*Dataset, error) {
	var jd jsonDataset
	if err := json.NewDecoder(r).Decode(&jd); err != nil {
		return nil, fmt.Errorf("unable to decode dataset, %w", err)
	}
	return New(jd.Observations, jd.CovariateNames)
}
