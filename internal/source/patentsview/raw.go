// Package patentsview implements the client and transformer for the
// PatentsView bibliographic API, the primary ingestion source for US patent
// data.  The client speaks the API's POST query protocol; the transformer
// maps its raw record shape into the unified patent model.
package patentsview

// RawInventor is one inventor entry as the API returns it.
type RawInventor struct {
	InventorID      string `json:"inventor_id"`
	InventorName    string `json:"inventor_name"`
	InventorCity    string `json:"inventor_city"`
	InventorState   string `json:"inventor_state"`
	InventorCountry string `json:"inventor_country"`
}

// RawAssignee is one assignee entry as the API returns it.  Type is a
// single-character numeric code; see assigneeTypeNames.
type RawAssignee struct {
	AssigneeID      string `json:"assignee_id"`
	AssigneeName    string `json:"assignee_name"`
	AssigneeType    string `json:"assignee_type"`
	AssigneeCity    string `json:"assignee_city"`
	AssigneeState   string `json:"assignee_state"`
	AssigneeCountry string `json:"assignee_country"`
}

// RawClaim is one claim entry.  DependentClaimID, when present, is a
// source-native reference whose trailing digits encode the claim number it
// depends on.
type RawClaim struct {
	ClaimText        string `json:"claim_text"`
	DependentClaimID string `json:"dependent_claim_id"`
}

// RawCitation is one cited-patent entry.
type RawCitation struct {
	CitedPatentID    string `json:"cited_patent_id"`
	CitationCategory string `json:"citation_category"`
}

// RawCPCSubsection is one CPC classification entry.
type RawCPCSubsection struct {
	CPCSubsectionID    string `json:"cpc_subsection_id"`
	CPCSubsectionTitle string `json:"cpc_subsection_title"`
}

// RawUSPCMainclass is one USPC classification entry.
type RawUSPCMainclass struct {
	USPCMainclassID    string `json:"uspc_mainclass_id"`
	USPCMainclassTitle string `json:"uspc_mainclass_title"`
}

// RawIPCRSubsection is one IPC classification entry.
type RawIPCRSubsection struct {
	IPCRSubsectionID    string `json:"ipcr_subsection_id"`
	IPCRSubsectionTitle string `json:"ipcr_subsection_title"`
}

// RawPatent is the typed shape of one patent record from the /patent
// endpoint.  Every field is optional on the wire; the transformer maps
// absent fields defensively.
type RawPatent struct {
	PatentID                      string `json:"patent_id"`
	PatentKind                    string `json:"patent_kind"`
	PatentTitle                   string `json:"patent_title"`
	PatentAbstract                string `json:"patent_abstract"`
	PatentDescription             string `json:"patent_description"`
	PatentDate                    string `json:"patent_date"`
	ApplicationDate               string `json:"application_date"`
	PatentEarliestApplicationDate string `json:"patent_earliest_application_date"`
	PatentsViewUpdateDate         string `json:"patentsview_update_date"`

	Inventors       []RawInventor      `json:"inventors"`
	Assignees       []RawAssignee      `json:"assignees"`
	Claims          []RawClaim         `json:"claims"`
	CitedPatents    []RawCitation      `json:"cited_patents"`
	CPCSubsections  []RawCPCSubsection `json:"cpc_subsections"`
	USPCMainclasses []RawUSPCMainclass `json:"uspc_mainclasses"`
	IPCRSubsections []RawIPCRSubsection `json:"ipcr_subsections"`
}

// DefaultFields is the minimal projection used when a caller does not
// request specific fields.
var DefaultFields = []string{"patent_id", "patent_title", "patent_abstract"}

// FullRecordFields is the projection requested during bulk indexing runs,
// covering everything the transformer maps.
var FullRecordFields = []string{
	"patent_id", "patent_kind", "patent_title", "patent_abstract", "patent_description",
	"patent_date", "application_date", "patent_earliest_application_date",
	"inventors", "assignees", "claims",
	"cited_patents", "cpc_subsections", "uspc_mainclasses", "ipcr_subsections",
}
