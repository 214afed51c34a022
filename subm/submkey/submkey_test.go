package submkey_test

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/ikk-contest/backend/subm/submkey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveExample(t *testing.T) {
	got := submkey.Derive("ayşe", "YILMAZ ", "0555 111 22 33")
	assert.Equal(t, "subm_yılmaz_ayşe_05551112233", got)
	assert.Equal(t, submkey.Derive("Ayşe", "yılmaz", "05551112233"), got)
}

func TestDeriveTurkishCasing(t *testing.T) {
	assert.Equal(t, submkey.Derive("ali", "x", "1"), submkey.Derive("ALİ", "x", "1"))
	assert.Equal(t, submkey.Derive("ali", "x", "1"), submkey.Derive("Ali", "x", "1"))
	assert.Equal(t, "subm_ılgaz_ışık_1", submkey.Derive("IŞIK", "ILGAZ", "1"))
}

func TestDeriveSanitizesSeparators(t *testing.T) {
	assert.Equal(t, "subm_van_der_berg_anne_marie_42", submkey.Derive("Anne-Marie", "  van   der  berg", "(4)2"))
	assert.Equal(t, "subm_o_brien_çağ_", submkey.Derive("Çağ", "O'Brien", ""))
}

func TestDeriveLosesNameSurnameBoundary(t *testing.T) {
	assert.Equal(t, submkey.Derive("berg", "van der", "1"), submkey.Derive("der berg", "van", "1"))
}

func TestDeriveIsTotal(t *testing.T) {
	assert.Equal(t, "subm___", submkey.Derive("", "", ""))
	assert.Equal(t, "subm___", submkey.Derive("   ", "\t", "+-() "))
}

func TestDeriveNormalizesUnicodeComposition(t *testing.T) {
	decomposed := "s\u0327" // s + combining cedilla
	assert.Equal(t, submkey.Derive("ş", "a", "1"), submkey.Derive(decomposed, "a", "1"))
}

var phoneDecorations = []string{" ", "-", "(", ")", "+", ".", "  ", "/"}

func decoratePhone(r *rand.Rand, digits string) string {
	var b strings.Builder
	for _, d := range digits {
		if r.IntN(3) == 0 {
			b.WriteString(phoneDecorations[r.IntN(len(phoneDecorations))])
		}
		b.WriteRune(d)
	}
	if r.IntN(2) == 0 {
		b.WriteString(" ")
	}
	return b.String()
}

func randomDigits(r *rand.Rand, n int) string {
	var b strings.Builder
	for range n {
		b.WriteByte(byte('0' + r.IntN(10)))
	}
	return b.String()
}

var nameRunes = []rune("abcçdefgğhıijklmnoöprsştuüvyz")

func randomName(r *rand.Rand) string {
	n := 2 + r.IntN(8)
	out := make([]rune, n)
	for i := range out {
		out[i] = nameRunes[r.IntN(len(nameRunes))]
	}
	return string(out)
}

func TestPhoneFormattingInvariance(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for range 500 {
		digits := randomDigits(r, 11)
		a := submkey.Derive("Ayşe", "Yılmaz", digits)
		b := submkey.Derive("Ayşe", "Yılmaz", decoratePhone(r, digits))
		require.Equal(t, a, b)
	}
}

func TestCaseAndWhitespaceInvariance(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	for range 500 {
		name, surname := randomName(r), randomName(r)
		a := submkey.Derive(name, surname, "05551112233")
		b := submkey.Derive("  "+upperTurkish(name)+" ", "\t"+upperTurkish(surname), "05551112233")
		require.Equal(t, a, b, "name=%q surname=%q", name, surname)
	}
}

func upperTurkish(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch c {
		case 'i':
			b.WriteRune('İ')
		case 'ı':
			b.WriteRune('I')
		default:
			b.WriteString(strings.ToUpper(string(c)))
		}
	}
	return b.String()
}

func TestDistinctTriplesGiveDistinctKeys(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 6))
	seen := map[string][3]string{}
	for range 5000 {
		triple := [3]string{randomName(r), randomName(r), randomDigits(r, 10)}
		key := submkey.Derive(triple[0], triple[1], triple[2])
		if prev, ok := seen[key]; ok {
			require.Equal(t, prev, triple, "collision for key %s", key)
		}
		seen[key] = triple
	}
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "ayşe nur", submkey.NormalizeName("  AYŞE   Nur "))
}
