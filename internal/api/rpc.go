package api

// RPC ids for the batchexecute backend. These are opaque codes assigned by
// the backend build; the symbolic names come from observed traffic.
const (
	rpcListNotebooks  = "wXbhsf"
	rpcGetNotebook    = "rLM1Ne"
	rpcCreateNotebook = "CCqFvf"
	rpcRenameNotebook = "s0tc2d"
	rpcDeleteNotebook = "WWINqb"

	rpcAddSource      = "izAoDd"
	rpcGetSource      = "hizoJc"
	rpcCheckFreshness = "yR9Yof"
	rpcSyncDrive      = "FLmJqe"
	rpcDeleteSource   = "tGMBJ"

	rpcGetSummary     = "VfAZjd"
	rpcGetSourceGuide = "tr032e"

	rpcStartFastResearch = "Ljjv0c"
	rpcStartDeepResearch = "QA9ei"
	rpcPollResearch      = "e3bVqc"
	rpcImportResearch    = "LBwxtb"

	rpcCreateStudio = "R7cb6c"
	rpcPollStudio   = "gArtLc"
	rpcDeleteStudio = "V5N4be"
)

// rpcNames maps RPC ids to method names for debug logging only.
var rpcNames = map[string]string{
	rpcListNotebooks:     "list_notebooks",
	rpcGetNotebook:       "get_notebook",
	rpcCreateNotebook:    "create_notebook",
	rpcRenameNotebook:    "rename_notebook",
	rpcDeleteNotebook:    "delete_notebook",
	rpcAddSource:         "add_source",
	rpcGetSource:         "get_source",
	rpcCheckFreshness:    "check_freshness",
	rpcSyncDrive:         "sync_drive",
	rpcDeleteSource:      "delete_source",
	rpcGetSummary:        "get_summary",
	rpcGetSourceGuide:    "get_source_guide",
	rpcStartFastResearch: "start_fast_research",
	rpcStartDeepResearch: "start_deep_research",
	rpcPollResearch:      "poll_research",
	rpcImportResearch:    "import_research",
	rpcCreateStudio:      "create_studio",
	rpcPollStudio:        "poll_studio",
	rpcDeleteStudio:      "delete_studio",
}

func rpcName(rpcID string) string {
	if name, ok := rpcNames[rpcID]; ok {
		return name
	}
	return "unknown"
}
