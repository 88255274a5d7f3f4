package scoring

import "math"

// ServiceColumns are the fourteen 0-5 service rating columns of the
// airline dataset, in dataset order.
var ServiceColumns = []string{
	"Inflight wifi service",
	"Departure/Arrival time convenient",
	"Ease of Online booking",
	"Gate location",
	"Food and drink",
	"Online boarding",
	"Seat comfort",
	"Inflight entertainment",
	"On-board service",
	"Leg room service",
	"Baggage handling",
	"Checkin service",
	"Inflight service",
	"Cleanliness",
}

const entropyEps = 1e-9

// Features are the derived per-passenger inputs added before scoring.
type Features struct {
	TotalDelay         float64
	DelayRatio         float64
	DelayIndicator     int
	ServiceScore       float64
	ServiceConsistency float64
	ServiceEntropy     float64
	AgeGroup           string
	DelayCategory      string
}

// Engineer computes the derived features from the raw numeric columns.
// services must hold the ratings in ServiceColumns order; missing delay
// values should be passed as 0.
func Engineer(age, flightDistance, departureDelay, arrivalDelay float64, services []float64) Features {
	f := Features{}
	f.TotalDelay = departureDelay + arrivalDelay
	f.DelayRatio = f.TotalDelay / (flightDistance + 1)
	if f.TotalDelay > 0 {
		f.DelayIndicator = 1
	}
	f.ServiceScore = mean(services)
	f.ServiceConsistency = stddev(services, f.ServiceScore)
	f.ServiceEntropy = shareEntropy(services)
	f.AgeGroup = ageGroup(age)
	f.DelayCategory = delayCategory(f.TotalDelay)
	return f
}

// AsMap exposes the derived features under their model input names.
func (f Features) AsMap() map[string]float64 {
	return map[string]float64{
		"total_delay":         f.TotalDelay,
		"delay_ratio":         f.DelayRatio,
		"delay_indicator":     float64(f.DelayIndicator),
		"service_score":       f.ServiceScore,
		"service_consistency": f.ServiceConsistency,
		"service_entropy":     f.ServiceEntropy,
	}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev is the sample standard deviation (n-1 denominator, matching the
// training pipeline).
func stddev(xs []float64, m float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)-1))
}

// shareEntropy treats each rating as a share of the rating total and
// returns the Shannon entropy of the shares.
func shareEntropy(xs []float64) float64 {
	var total float64
	for _, x := range xs {
		total += x
	}
	total += entropyEps
	var h float64
	for _, x := range xs {
		p := x / total
		h -= p * math.Log(p+entropyEps)
	}
	return h
}

func ageGroup(age float64) string {
	switch {
	case age <= 18:
		return "Child"
	case age <= 35:
		return "Young"
	case age <= 60:
		return "Adult"
	default:
		return "Senior"
	}
}

func delayCategory(totalDelay float64) string {
	switch {
	case totalDelay <= 0:
		return "No Delay"
	case totalDelay <= 15:
		return "Short"
	case totalDelay <= 60:
		return "Moderate"
	default:
		return "Severe"
	}
}

// Accuracy is the share of predictions matching the true labels.
func Accuracy(truth, predicted []string) float64 {
	if len(truth) == 0 || len(truth) != len(predicted) {
		return 0
	}
	var hits int
	for i := range truth {
		if truth[i] == predicted[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(truth))
}

// RocAuc computes the area under the ROC curve from positive-class
// probabilities, via the rank-sum formulation. positive marks which
// samples carry the positive label.
func RocAuc(positive []bool, probs []float64) float64 {
	if len(positive) != len(probs) || len(positive) == 0 {
		return 0
	}
	var nPos, nNeg int
	for _, p := range positive {
		if p {
			nPos++
		} else {
			nNeg++
		}
	}
	if nPos == 0 || nNeg == 0 {
		return 0
	}
	// Sum over positive/negative pairs: 1 if the positive sample is
	// ranked higher, 0.5 on ties.
	var sum float64
	for i, pi := range positive {
		if !pi {
			continue
		}
		for j, pj := range positive {
			if pj {
				continue
			}
			switch {
			case probs[i] > probs[j]:
				sum++
			case probs[i] == probs[j]:
				sum += 0.5
			}
		}
	}
	return sum / float64(nPos*nNeg)
}
