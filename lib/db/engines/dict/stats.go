package dict

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/kvcore/lib/db/util"
	gometrics "github.com/rcrowley/go-metrics"
)

// statsVectorLen is the number of chain length classes; the last one collects all longer chains
const statsVectorLen = 50

// Stats describes the shape of a Table
type Stats struct {
	Size       int   `json:"size"`
	Entries    int   `json:"entries"`
	Slots      int   `json:"slots"` // non-empty buckets
	MaxChain   int   `json:"max_chain"`
	Expansions int64 `json:"expansions"`

	AvgChainCounted  float64 `json:"avg_chain_counted"`
	AvgChainComputed float64 `json:"avg_chain_computed"`
	P50Chain         float64 `json:"p50_chain"`
	P99Chain         float64 `json:"p99_chain"`

	// Distribution[i] is the number of buckets with a chain of length i
	Distribution []int `json:"distribution"`

	// Quality rates how evenly entries are spread over the non-empty buckets
	Quality util.DistributionStats `json:"quality"`
}

// Stats walks all buckets and summarizes their chain lengths
func (t *Table[K, V]) Stats() Stats {
	s := Stats{
		Size:         int(t.size),
		Entries:      int(t.used),
		Expansions:   t.expansions.Count(),
		Distribution: make([]int, statsVectorLen),
	}
	if t.used == 0 {
		return s
	}

	hist := gometrics.NewHistogram(gometrics.NewUniformSample(1028))
	var chains []float64
	total := 0
	for i := uint64(0); i < t.size; i++ {
		chainLen := 0
		for idx := t.buckets[i]; idx != nilIdx; idx = t.arena[idx].next {
			chainLen++
		}
		s.Distribution[min(chainLen, statsVectorLen-1)]++
		if chainLen == 0 {
			continue
		}

		s.Slots++
		total += chainLen
		s.MaxChain = max(s.MaxChain, chainLen)
		hist.Update(int64(chainLen))
		chains = append(chains, float64(chainLen))
	}

	s.AvgChainCounted = float64(total) / float64(s.Slots)
	s.AvgChainComputed = float64(t.used) / float64(s.Slots)
	s.P50Chain = hist.Percentile(0.5)
	s.P99Chain = hist.Percentile(0.99)
	s.Quality = util.NewDistributionStats(chains)
	return s
}

func (s Stats) String() string {
	if s.Entries == 0 {
		return "No stats available for empty dictionaries\n"
	}

	var b strings.Builder
	b.WriteString("Hash table stats:\n")
	fmt.Fprintf(&b, " table size: %d\n", s.Size)
	fmt.Fprintf(&b, " number of elements: %d\n", s.Entries)
	fmt.Fprintf(&b, " different slots: %d\n", s.Slots)
	fmt.Fprintf(&b, " max chain length: %d\n", s.MaxChain)
	fmt.Fprintf(&b, " avg chain length (counted): %.02f\n", s.AvgChainCounted)
	fmt.Fprintf(&b, " avg chain length (computed): %.02f\n", s.AvgChainComputed)
	fmt.Fprintf(&b, " chain length p50/p99: %.0f/%.0f\n", s.P50Chain, s.P99Chain)
	fmt.Fprintf(&b, " distribution quality: %.02f\n", s.Quality.DistributionQuality)
	fmt.Fprintf(&b, " expansions: %d\n", s.Expansions)
	b.WriteString(" Chain length distribution:\n")
	for i, n := range s.Distribution {
		if n == 0 {
			continue
		}
		prefix := ""
		if i == statsVectorLen-1 {
			prefix = ">= "
		}
		fmt.Fprintf(&b, "   %s%d: %d (%.02f%%)\n", prefix, i, n, float64(n)/float64(s.Size)*100)
	}
	return b.String()
}
