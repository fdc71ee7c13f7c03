package usecase

import (
	_ "embed"
	"fmt"
	"math"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/biaslab/bias-engine/internal/core/domain"
)

//go:embed clusters.yaml
var clustersYAML []byte

const (
	defaultClusterThreshold = 0.35
	keywordHitBonus         = 0.03
	maxKeywordHits          = 3
)

// NarrativeClassifier maps a completed score vector plus lexical signals to
// the nearest catalog cluster. Pure and deterministic; ties go to catalog
// declaration order.
type NarrativeClassifier struct {
	catalog   []domain.NarrativeCluster
	threshold float64
}

func NewNarrativeClassifier(threshold float64) (*NarrativeClassifier, error) {
	if threshold <= 0 {
		threshold = defaultClusterThreshold
	}

	var catalog struct {
		Clusters []domain.NarrativeCluster `yaml:"clusters"`
	}
	if err := yaml.Unmarshal(clustersYAML, &catalog); err != nil {
		return nil, fmt.Errorf("parse cluster catalog: %w", err)
	}
	if len(catalog.Clusters) == 0 {
		return nil, fmt.Errorf("cluster catalog is empty")
	}
	for _, cluster := range catalog.Clusters {
		if len(cluster.Signature) != len(domain.AllDimensions) {
			return nil, fmt.Errorf("cluster %q: signature covers %d of %d dimensions",
				cluster.Label, len(cluster.Signature), len(domain.AllDimensions))
		}
	}

	return &NarrativeClassifier{catalog: catalog.Clusters, threshold: threshold}, nil
}

// Classify returns the closest cluster when its distance is within the
// threshold, nil otherwise.
func (c *NarrativeClassifier) Classify(doc *domain.Document, scores map[domain.DimensionKind]domain.DimensionScore) *domain.NarrativeCluster {
	if len(scores) < len(domain.AllDimensions) {
		return nil
	}

	text := strings.ToLower(doc.Title + " " + doc.Body)

	var best *domain.NarrativeCluster
	bestDistance := math.Inf(1)
	for i := range c.catalog {
		cluster := &c.catalog[i]
		distance := signatureDistance(scores, cluster.Signature) - keywordSignal(text, cluster.Keywords)
		if distance < bestDistance {
			bestDistance = distance
			best = cluster
		}
	}
	if best == nil || bestDistance > c.threshold {
		return nil
	}
	return best
}

// signatureDistance is the RMS gap between observed and reference vectors,
// normalized to [0,1] by the score scale.
func signatureDistance(scores map[domain.DimensionKind]domain.DimensionScore, signature map[domain.DimensionKind]float64) float64 {
	var sum float64
	for _, kind := range domain.AllDimensions {
		delta := scores[kind].Value - signature[kind]
		sum += delta * delta
	}
	return math.Sqrt(sum/float64(len(domain.AllDimensions))) / 100.0
}

func keywordSignal(text string, keywords []string) float64 {
	hits := 0
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			hits++
			if hits == maxKeywordHits {
				break
			}
		}
	}
	return float64(hits) * keywordHitBonus
}
