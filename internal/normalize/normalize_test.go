package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName_Empty(t *testing.T) {
	assert.Equal(t, "", Name(""))
	assert.Equal(t, "", Name("   "))
}

func TestName_Lowercase(t *testing.T) {
	assert.Equal(t, "acme advisors", Name("ACME Advisors"))
}

func TestName_Transliterate(t *testing.T) {
	assert.Equal(t, "nestle", Name("Nestlé"))
	assert.Equal(t, "societe generale", Name("Société Générale"))
	assert.Equal(t, "zurich", Name("Zürich"))
}

func TestName_DropsNonASCII(t *testing.T) {
	assert.Equal(t, "acme", Name("Acme 株式会社"))
}

func TestName_StripPunctuation(t *testing.T) {
	assert.Equal(t, "procter gamble", Name("Procter & Gamble"))
	assert.Equal(t, "att", Name("AT&T, Inc."))
	assert.Equal(t, "joes", Name("Joe's"))
}

func TestName_StripLegalSuffix(t *testing.T) {
	tests := map[string]string{
		"Acme Inc":          "acme",
		"Acme Inc.":         "acme",
		"Acme GmbH":         "acme",
		"Acme Ltd":          "acme",
		"Acme Limited":      "acme",
		"Acme S.A.":         "acme",
		"Acme N.V.":         "acme",
		"Acme GmbH & Co KG": "acme",
		"Acme Pty Ltd":      "acme",
		"Acme PLC":          "acme",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, Name(in))
		})
	}
}

func TestName_SuffixOnlyAtEnd(t *testing.T) {
	assert.Equal(t, "inc research", Name("Inc Research"))
}

func TestName_RemoveStopwords(t *testing.T) {
	assert.Equal(t, "acme", Name("Acme Holdings"))
	assert.Equal(t, "acme", Name("Acme Group"))
	assert.Equal(t, "acme", Name("International Acme Investments"))
	assert.Equal(t, "koninklijke acme", Name("Koninklijke Acme Groep"))
}

func TestName_StopwordsWholeWordOnly(t *testing.T) {
	assert.Equal(t, "groupon", Name("Groupon"))
	assert.Equal(t, "cocacola", Name("Coca-Cola"))
}

func TestName_SuffixAndStopwordCollapseToSameRoot(t *testing.T) {
	assert.Equal(t, Name("acme"), Name("Acme Holdings Inc."))
}

func TestName_OnlyRemovedTokens(t *testing.T) {
	assert.Equal(t, "", Name("Holding Group"))
	assert.Equal(t, "", Name("Inc."))
}

func TestName_Idempotent(t *testing.T) {
	inputs := []string{
		"Acme Holdings Inc.",
		"acme inc group",
		"Société Générale S.A.",
		"ℌeineken N.V.",
		"  Foo   Bar  Ltd Co ",
		"Group Holding SE",
		"Beta/Gamma International",
		"",
	}
	for _, in := range inputs {
		once := Name(in)
		assert.Equal(t, once, Name(once), "input %q", in)
	}
}

func TestName_Deterministic(t *testing.T) {
	assert.Equal(t, Name("Ørsted A/S"), Name("Ørsted A/S"))
}

func TestASCII(t *testing.T) {
	assert.Equal(t, "Cafe", ASCII("Café"))
	assert.Equal(t, "fi", ASCII("ﬁ"))
	assert.Equal(t, "", ASCII("日本"))
}
