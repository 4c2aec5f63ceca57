package bundle

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cognicore/ulasan/pkg/ulasan/bayes"
	"github.com/cognicore/ulasan/pkg/ulasan/internalerr"
	"github.com/cognicore/ulasan/pkg/ulasan/label"
	"github.com/cognicore/ulasan/pkg/ulasan/tfidf"
)

// FormatVersion is bumped whenever the persisted layout changes.
const FormatVersion = 1

// VectorizerFile is the persisted vocabulary and idf table.
type VectorizerFile struct {
	FormatVersion int       `json:"format_version"`
	RunID         string    `json:"run_id"`
	CreatedAt     time.Time `json:"created_at"`
	MinDF         int       `json:"min_df"`
	MaxDF         float64   `json:"max_df"`
	NGramMin      int       `json:"ngram_min"`
	NGramMax      int       `json:"ngram_max"`
	NumDocs       int64     `json:"num_docs"`
	Terms         []string  `json:"terms"`
	IDF           []float64 `json:"idf"`
	DF            []int64   `json:"df"`
}

// ClassifierFile is the persisted Naive Bayes parameters. VocabularyDigest
// ties it to the vocabulary it was trained against.
type ClassifierFile struct {
	FormatVersion    int         `json:"format_version"`
	RunID            string      `json:"run_id"`
	CreatedAt        time.Time   `json:"created_at"`
	Alpha            float64     `json:"alpha"`
	Dimension        int         `json:"dimension"`
	VocabularyDigest string      `json:"vocabulary_digest"`
	Classes          []ClassFile `json:"classes"`
}

// ClassFile holds one label's parameters.
type ClassFile struct {
	Label         label.Label `json:"label"`
	DocCount      int64       `json:"doc_count"`
	LogPrior      float64     `json:"log_prior"`
	LogLikelihood []float64   `json:"log_likelihood"`
}

// Encode splits a bundle into its two persisted halves.
func Encode(b *Bundle) (VectorizerFile, ClassifierFile, error) {
	if err := b.Validate(); err != nil {
		return VectorizerFile{}, ClassifierFile{}, err
	}
	vocab := b.Vectorizer.Vocabulary()
	opts := b.Vectorizer.Options()
	vf := VectorizerFile{
		FormatVersion: FormatVersion,
		RunID:         b.RunID,
		CreatedAt:     b.CreatedAt,
		MinDF:         opts.MinDF,
		MaxDF:         opts.MaxDF,
		NGramMin:      opts.NGramMin,
		NGramMax:      opts.NGramMax,
		NumDocs:       vocab.NumDocs(),
		Terms:         vocab.Terms(),
		IDF:           vocab.IDFs(),
		DF:            vocab.DFs(),
	}

	params, err := b.Classifier.Parameters()
	if err != nil {
		return VectorizerFile{}, ClassifierFile{}, err
	}
	cf := ClassifierFile{
		FormatVersion:    FormatVersion,
		RunID:            b.RunID,
		CreatedAt:        b.CreatedAt,
		Alpha:            params.Alpha,
		Dimension:        params.Dim,
		VocabularyDigest: vocab.Digest(),
	}
	for _, cp := range params.Classes {
		cf.Classes = append(cf.Classes, ClassFile{
			Label:         cp.Label,
			DocCount:      cp.DocCount,
			LogPrior:      cp.LogPrior,
			LogLikelihood: cp.LogLikelihood,
		})
	}
	return vf, cf, nil
}

// Decode rebuilds a bundle from its two halves, rejecting any pair that did
// not come out of the same training run.
func Decode(vf VectorizerFile, cf ClassifierFile) (*Bundle, error) {
	if vf.FormatVersion != FormatVersion || cf.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported format versions (vectorizer %d, classifier %d, want %d)",
			internalerr.ErrBundleLoad, vf.FormatVersion, cf.FormatVersion, FormatVersion)
	}
	if vf.RunID == "" || vf.RunID != cf.RunID {
		return nil, fmt.Errorf("%w: vectorizer run %q does not match classifier run %q",
			internalerr.ErrBundleLoad, vf.RunID, cf.RunID)
	}

	vocab, err := tfidf.NewVocabulary(vf.Terms, vf.IDF, vf.DF, vf.NumDocs)
	if err != nil {
		return nil, fmt.Errorf("%w: vocabulary: %v", internalerr.ErrBundleLoad, err)
	}
	if cf.Dimension != vocab.Len() {
		return nil, fmt.Errorf("%w: vocabulary has %d terms but classifier dimension is %d",
			internalerr.ErrBundleLoad, vocab.Len(), cf.Dimension)
	}
	if cf.VocabularyDigest != vocab.Digest() {
		return nil, fmt.Errorf("%w: classifier was trained on a different vocabulary", internalerr.ErrBundleLoad)
	}

	vec, err := tfidf.FromVocabulary(tfidf.Options{
		MinDF:    vf.MinDF,
		MaxDF:    vf.MaxDF,
		NGramMin: vf.NGramMin,
		NGramMax: vf.NGramMax,
	}, vocab)
	if err != nil {
		return nil, fmt.Errorf("%w: vectorizer: %v", internalerr.ErrBundleLoad, err)
	}

	if len(cf.Classes) != label.Count {
		return nil, fmt.Errorf("%w: classifier has %d classes, want %d", internalerr.ErrBundleLoad, len(cf.Classes), label.Count)
	}
	params := bayes.Parameters{Alpha: cf.Alpha, Dim: cf.Dimension}
	for _, c := range cf.Classes {
		k := c.Label.Index()
		if k < 0 || params.Classes[k].Label.Valid() {
			return nil, fmt.Errorf("%w: invalid or duplicate class %s", internalerr.ErrBundleLoad, c.Label)
		}
		params.Classes[k] = bayes.ClassParameters{
			Label:         c.Label,
			DocCount:      c.DocCount,
			LogPrior:      c.LogPrior,
			LogLikelihood: c.LogLikelihood,
		}
	}
	clf, err := bayes.FromParameters(params)
	if err != nil {
		return nil, fmt.Errorf("%w: classifier: %v", internalerr.ErrBundleLoad, err)
	}

	b := &Bundle{RunID: vf.RunID, CreatedAt: vf.CreatedAt, Vectorizer: vec, Classifier: clf}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Marshal encodes a bundle into two JSON blobs.
func Marshal(b *Bundle) (vectorizer, classifier []byte, err error) {
	vf, cf, err := Encode(b)
	if err != nil {
		return nil, nil, err
	}
	if vectorizer, err = json.Marshal(vf); err != nil {
		return nil, nil, fmt.Errorf("encode vectorizer: %w", err)
	}
	if classifier, err = json.Marshal(cf); err != nil {
		return nil, nil, fmt.Errorf("encode classifier: %w", err)
	}
	return vectorizer, classifier, nil
}

// Unmarshal decodes two JSON blobs into a bundle.
func Unmarshal(vectorizer, classifier []byte) (*Bundle, error) {
	var vf VectorizerFile
	if err := json.Unmarshal(vectorizer, &vf); err != nil {
		return nil, fmt.Errorf("%w: corrupt vectorizer: %v", internalerr.ErrBundleLoad, err)
	}
	var cf ClassifierFile
	if err := json.Unmarshal(classifier, &cf); err != nil {
		return nil, fmt.Errorf("%w: corrupt classifier: %v", internalerr.ErrBundleLoad, err)
	}
	return Decode(vf, cf)
}
