package dataset

import (
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/chartreview"
)

var corpus = []chartreview.TrainingExample{
	{AdmissionID: "A1", PatientID: "P1", Prefix: chartreview.PrefixEventDetection, InputText: "s1 options: Remission, Acute, DayCare, Episode.", TargetText: "Acute, Episode"},
	{AdmissionID: "A1", PatientID: "P1", Prefix: chartreview.PrefixTimeExtraction, InputText: "s1 admission date: 2020-01-01 00:00:00. options: time, vague, age, ago.", TargetText: "None"},
	{AdmissionID: "A2", PatientID: "P2", Prefix: chartreview.PrefixEventDetection, InputText: "病人, \"緩解\".", TargetText: "Remission"},
}

func TestEncodeDecode(t *testing.T) {
	for _, name := range []string{"corpus.xlsx", "corpus.csv"} {
		t.Run(name, func(t *testing.T) {
			body, err := Encode(name, corpus)
			require.NoError(t, err)

			got, err := Decode(name, body)
			require.NoError(t, err)
			assert.Equal(t, corpus, got)
		})
	}
}

func TestEncode_CSVHeader(t *testing.T) {
	body, err := Encode("corpus.csv", nil)
	require.NoError(t, err)
	assert.Equal(t, "aid,pid,prefix,input_text,target_text\n", string(body))
}

func TestEncode_Unsupported(t *testing.T) {
	_, err := Encode("corpus.parquet", corpus)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDecode_BadHeader(t *testing.T) {
	_, err := Decode("corpus.csv", []byte("aid,pid,prefix\nA1,P1,x\n"))
	assert.ErrorIs(t, err, ErrBadHeader)
}

func TestAdmissions(t *testing.T) {
	assert.Equal(t, []string{"A1", "A2"}, Admissions(corpus))
}

func ids(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("A%02d", i)
	}
	return out
}

func TestKFold_CoversEveryAdmission(t *testing.T) {
	all := ids(23)
	folds, err := KFold(all, 10, 42)
	require.NoError(t, err)
	require.Len(t, folds, 10)

	var tested []string
	for i, f := range folds {
		assert.Equal(t, i, f.Index)
		if i < 3 {
			assert.Len(t, f.Test, 3)
		} else {
			assert.Len(t, f.Test, 2)
		}
		assert.Len(t, f.Eval, len(f.Test))
		assert.Len(t, f.Train, len(all)-2*len(f.Test))

		round := append(append(append([]string{}, f.Train...), f.Eval...), f.Test...)
		sort.Strings(round)
		assert.Equal(t, all, round, "fold %d must partition the admissions", i)

		tested = append(tested, f.Test...)
	}
	sort.Strings(tested)
	assert.Equal(t, all, tested, "each admission is tested exactly once")
}

func TestKFold_Deterministic(t *testing.T) {
	a, err := KFold(ids(12), 4, 7)
	require.NoError(t, err)
	b, err := KFold(ids(12), 4, 7)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestKFold_InvalidCount(t *testing.T) {
	_, err := KFold(ids(3), 4, 1)
	assert.ErrorIs(t, err, ErrFoldCount)
	_, err = KFold(ids(3), 1, 1)
	assert.ErrorIs(t, err, ErrFoldCount)
}

func TestFold_Partition(t *testing.T) {
	f := Fold{Train: []string{"A1"}, Test: []string{"A2"}}
	train, eval, test := f.Partition(corpus)
	assert.Len(t, train, 2)
	assert.Empty(t, eval)
	require.Len(t, test, 1)
	assert.Equal(t, "A2", test[0].AdmissionID)
}
