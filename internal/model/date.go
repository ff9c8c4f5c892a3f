package model

import (
	"encoding/json"
	"time"
)

// Date is a calendar date.  Only the year, month and day are meaningful;
// it marshals as DateLayout.
type Date struct {
	time.Time
}

// NewDate returns the date y-m-d.
func NewDate(y int, m time.Month, d int) Date {
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string { return d.Format(DateLayout) }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(DateLayout))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	t, err := ParseShowDate(raw)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}
