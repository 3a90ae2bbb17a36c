package contacts

import (
	"testing"

	"cloud.google.com/go/bigquery"
)

func TestNewBigQueryRegistryWithClientSharesClient(t *testing.T) {
	client := &bigquery.Client{}
	r := NewBigQueryRegistryWithClient(client)
	if r.client != client {
		t.Error("registry does not use the provided client")
	}
}

func TestContactFromRow(t *testing.T) {
	row := &ContactRow{
		Code:               "SARA",
		DisplayName:        "سارة",
		Relation:           bigquery.NullString{StringVal: "زوجة", Valid: true},
		Aliases:            []string{"الزوجة"},
		CurrencyPreference: bigquery.NullString{StringVal: "SAR", Valid: true},
		IsActive:           true,
	}
	c := contactFromRow(row)
	if c.Code != "SARA" || c.Relation != "زوجة" || c.CurrencyPreference != "SAR" || !c.Active {
		t.Errorf("contactFromRow = %+v", c)
	}
	if len(c.Aliases) != 1 || c.Aliases[0] != "الزوجة" {
		t.Errorf("aliases = %v", c.Aliases)
	}
}
