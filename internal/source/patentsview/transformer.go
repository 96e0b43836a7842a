package patentsview

import (
	"regexp"
	"strconv"
	"time"

	"github.com/turtacn/patentflow/internal/domain/patent"
	"github.com/turtacn/patentflow/pkg/errors"
)

// trailingDigits extracts the claim number from a source-native dependent
// claim reference such as "US10123456-claim-3".
var trailingDigits = regexp.MustCompile(`\d+$`)

// assigneeTypeNames maps the API's single-character assignee type codes to
// named categories.  Unknown or missing codes map to "Unknown".
var assigneeTypeNames = map[string]string{
	"2": "U.S. Company or Corporation",
	"3": "Foreign Company or Corporation",
	"4": "U.S. Individual",
	"5": "Foreign Individual",
	"6": "U.S. Federal Government",
	"7": "Foreign Government",
	"8": "U.S. County Government",
	"9": "U.S. State Government",
}

// Transformer maps raw PatentsView records into the unified patent model.
// The mapping is total and defensive: every unified field has a fallback
// when the source field is absent, so a transform never fails on missing
// optional data.
type Transformer struct {
	now func() time.Time
}

// NewTransformer constructs a Transformer using the wall clock.
func NewTransformer() *Transformer {
	return &Transformer{now: func() time.Time { return time.Now().UTC() }}
}

// Transform converts one raw record into a unified Patent.  A nil record is
// the only failure mode.
func (t *Transformer) Transform(raw *RawPatent) (*patent.Patent, error) {
	if raw == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "raw patent record is nil")
	}

	updateDate := raw.PatentsViewUpdateDate
	if updateDate == "" {
		updateDate = "unknown"
	}

	return &patent.Patent{
		PatentID:    raw.PatentID,
		ExternalIDs: map[string]string{"patentsview_id": raw.PatentID},
		Source:      patent.SourcePatentsView,

		Title:       raw.PatentTitle,
		Abstract:    raw.PatentAbstract,
		Description: raw.PatentDescription,
		KindCode:    raw.PatentKind,

		Claims:          t.transformClaims(raw.Claims),
		Dates:           t.transformDates(raw),
		Inventors:       t.transformInventors(raw.Inventors),
		Assignees:       t.transformAssignees(raw.Assignees),
		Classifications: t.transformClassifications(raw),
		Citations:       t.transformCitations(raw.CitedPatents),

		Metadata: patent.NewMetadata(
			patent.SourcePatentsView,
			map[string]string{"patentsview": updateDate},
			t.now(),
		),
	}, nil
}

// TransformMany converts a page of raw records.  A nil page yields an empty
// slice; a nil record inside the page fails the whole call because it
// signals a decoding bug upstream.
func (t *Transformer) TransformMany(raws []RawPatent) ([]*patent.Patent, error) {
	out := make([]*patent.Patent, 0, len(raws))
	for i := range raws {
		p, err := t.Transform(&raws[i])
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (t *Transformer) transformClaims(raws []RawClaim) []patent.Claim {
	claims := make([]patent.Claim, 0, len(raws))
	for i, rc := range raws {
		claim := patent.Claim{
			Number: i + 1,
			Text:   rc.ClaimText,
		}
		if rc.DependentClaimID != "" {
			// Malformed references silently yield no dependency.
			if m := trailingDigits.FindString(rc.DependentClaimID); m != "" {
				if n, err := strconv.Atoi(m); err == nil {
					claim.DependentOn = &n
				}
			}
		}
		claims = append(claims, claim)
	}
	return claims
}

func (t *Transformer) transformDates(raw *RawPatent) *patent.PatentDates {
	dates := &patent.PatentDates{}
	set := func(target **patent.Date, value string) {
		if value == "" {
			return
		}
		d := patent.ParseDate(value)
		*target = &d
	}
	set(&dates.Filing, raw.ApplicationDate)
	// PatentsView reports one date for both publication and grant.
	set(&dates.Publication, raw.PatentDate)
	set(&dates.Grant, raw.PatentDate)
	set(&dates.Priority, raw.PatentEarliestApplicationDate)
	return dates
}

func (t *Transformer) transformInventors(raws []RawInventor) []patent.Inventor {
	inventors := make([]patent.Inventor, 0, len(raws))
	for _, ri := range raws {
		inventors = append(inventors, patent.Inventor{
			Name: ri.InventorName,
			Location: &patent.Location{
				Country: ri.InventorCountry,
				State:   ri.InventorState,
				City:    ri.InventorCity,
			},
			NormalizedID: ri.InventorID,
		})
	}
	return inventors
}

func (t *Transformer) transformAssignees(raws []RawAssignee) []patent.Assignee {
	assignees := make([]patent.Assignee, 0, len(raws))
	for _, ra := range raws {
		typeName, ok := assigneeTypeNames[ra.AssigneeType]
		if !ok {
			typeName = "Unknown"
		}
		assignees = append(assignees, patent.Assignee{
			Name: ra.AssigneeName,
			Type: typeName,
			Location: &patent.Location{
				Country: ra.AssigneeCountry,
				State:   ra.AssigneeState,
				City:    ra.AssigneeCity,
			},
			NormalizedID: ra.AssigneeID,
		})
	}
	return assignees
}

// transformClassifications concatenates the three source collections in
// CPC, USPC, IPC order.  CPC entries synthesize a two-level hierarchy from
// the first character of the code.
func (t *Transformer) transformClassifications(raw *RawPatent) []patent.Classification {
	var out []patent.Classification
	for _, cpc := range raw.CPCSubsections {
		c := patent.Classification{
			System:      patent.ClassificationCPC,
			Code:        cpc.CPCSubsectionID,
			Description: cpc.CPCSubsectionTitle,
		}
		if cpc.CPCSubsectionID != "" {
			c.Hierarchy = []string{cpc.CPCSubsectionID[:1], cpc.CPCSubsectionID}
		}
		out = append(out, c)
	}
	for _, uspc := range raw.USPCMainclasses {
		out = append(out, patent.Classification{
			System:      patent.ClassificationUSPC,
			Code:        uspc.USPCMainclassID,
			Description: uspc.USPCMainclassTitle,
		})
	}
	for _, ipc := range raw.IPCRSubsections {
		out = append(out, patent.Classification{
			System:      patent.ClassificationIPC,
			Code:        ipc.IPCRSubsectionID,
			Description: ipc.IPCRSubsectionTitle,
		})
	}
	return out
}

func (t *Transformer) transformCitations(raws []RawCitation) []patent.Citation {
	citations := make([]patent.Citation, 0, len(raws))
	for _, rc := range raws {
		category := rc.CitationCategory
		if category == "" {
			category = "cited"
		}
		citations = append(citations, patent.Citation{
			PatentID:     rc.CitedPatentID,
			CitationType: category,
		})
	}
	return citations
}
