package util

import (
	"testing"
	"time"
)

func TestNormalizeName(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{input: "QR  code!!", want: "qr code"},
		{input: "QR Code", want: "qr code"},
		{input: "Is Missing (Y/N)", want: "is missing y n"},
		{input: "  Voltage   Rating (UoM) ", want: "voltage rating uom"},
		{input: "***", want: ""},
	}

	for _, tc := range cases {
		if got := NormalizeName(tc.input); got != tc.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestSafeFilename(t *testing.T) {
	if got := SafeFilename(`A/B:C*D?"E"`); got != "A_B_C_D__E_" {
		t.Errorf("got %q", got)
	}
}

func TestSpaceNumber(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{input: "101 Mechanical Room", want: "101"},
		{input: "  B2-040  Penthouse", want: "B2-040"},
		{input: "", want: ""},
	}
	for _, tc := range cases {
		if got := SpaceNumber(tc.input); got != tc.want {
			t.Errorf("SpaceNumber(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestFormatYearToDate(t *testing.T) {
	now := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "two digit below pivot", input: "23", want: "01/01/2023"},
		{name: "two digit above pivot", input: "98", want: "01/01/1998"},
		{name: "decimal artifact", input: "1999.0", want: "01/01/1999"},
		{name: "four digit", input: "2004", want: "01/01/2004"},
		{name: "non numeric passes through", input: "abcd", want: "abcd"},
		{name: "out of range low", input: "1900", want: "1900"},
		{name: "out of range high", input: "2100", want: "2100"},
		{name: "three digits pass through", input: "123", want: "123"},
		{name: "blank passes through", input: "", want: ""},
		{name: "signed passes through", input: "+23", want: "+23"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatYearToDate(now, tc.input); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}
