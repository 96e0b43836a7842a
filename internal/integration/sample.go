package integration

import (
	"fmt"
	"time"

	"github.com/turtacn/patentflow/internal/domain/patent"
)

// sampleTopics seed the generated records with varied searchable text.
var sampleTopics = []struct {
	title    string
	abstract string
	cpc      string
}{
	{"Neural network accelerator with sparse weight compression", "A hardware accelerator for neural network inference using compressed sparse weights.", "G06N"},
	{"Distributed ledger consensus with rotating validators", "A blockchain consensus protocol rotating validator sets per epoch.", "H04L"},
	{"Low-power sensor mesh for connected devices", "An internet of things sensor network with duty-cycled radio scheduling.", "H04W"},
	{"Head-mounted display with foveated rendering", "A virtual reality display system rendering at full resolution only at the gaze point.", "G02B"},
	{"Augmented reality overlay registration using depth maps", "An augmented reality system aligning overlays with scene geometry via depth sensing.", "G06T"},
}

// SamplePatents generates n deterministic, fully valid sample patents for
// index smoke tests and local development.  The same n always yields the
// same records.
func SamplePatents(n int) []*patent.Patent {
	base := time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC)
	out := make([]*patent.Patent, 0, n)

	for i := 0; i < n; i++ {
		topic := sampleTopics[i%len(sampleTopics)]
		id := fmt.Sprintf("9%07d", i+1)
		filing := patent.NewDate(base.AddDate(0, i, 0))
		grant := patent.NewDate(base.AddDate(1, i, 0))

		p := &patent.Patent{
			PatentID:    id,
			Source:      patent.SourcePatentsView,
			ExternalIDs: map[string]string{"patentsview_id": id},
			Title:       topic.title,
			Abstract:    topic.abstract,
			Description: topic.abstract + " The invention is described in detail with reference to the drawings.",
			KindCode:    "B2",
			Claims: []patent.Claim{
				{Number: 1, Text: "A system comprising a processor and a memory."},
				{Number: 2, Text: "The system of claim 1, wherein the memory is non-volatile.", DependentOn: intPtr(1)},
			},
			Dates: &patent.PatentDates{
				Filing:      &filing,
				Publication: &grant,
				Grant:       &grant,
				Priority:    &filing,
			},
			Inventors: []patent.Inventor{
				{Name: fmt.Sprintf("Inventor %d", i+1), Location: &patent.Location{Country: "US", State: "CA", City: "San Jose"}},
			},
			Assignees: []patent.Assignee{
				{Name: fmt.Sprintf("Sample Labs %d Inc.", i%len(sampleTopics)+1), Type: "U.S. Company or Corporation", Location: &patent.Location{Country: "US"}},
			},
			Classifications: []patent.Classification{
				{System: patent.ClassificationCPC, Code: topic.cpc, Hierarchy: []string{topic.cpc[:1], topic.cpc}},
			},
			Citations: []patent.Citation{},
			Metadata: patent.NewMetadata(patent.SourcePatentsView,
				map[string]string{patent.SourcePatentsView: "2024-01-01"}, base),
		}
		out = append(out, p)
	}
	return out
}

func intPtr(v int) *int { return &v }
