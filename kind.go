package formflow

// Kind enumerates every action variant the form engine knows about.
type Kind int

const (
	KindUnknown Kind = iota

	// intents, handled by the transition table
	KindRequestSchema
	KindRequestOptions
	KindInputField
	KindSetField
	KindCreateOption
	KindValidateField
	KindValidateForm
	KindRequestLoadIndex
	KindSubmit
	KindClear

	// responses produced by completed requests
	KindSchemaFetched
	KindOptionsFetched
	KindIndexFetched
	KindSubmitAcked
	KindRequestFailed

	// state mutations and host events
	KindInstallSchema
	KindSetErrors
	KindInstallOptions
	KindResetForm
	KindSetLoader
	KindSetDirty
	KindSetIndexLoaded
	KindNotify
	KindIssueRequest
)

var kindNames = map[Kind]string{
	KindUnknown:          "unknown",
	KindRequestSchema:    "request_schema",
	KindRequestOptions:   "request_options",
	KindInputField:       "input_field",
	KindSetField:         "set_field",
	KindCreateOption:     "create_option",
	KindValidateField:    "validate_field",
	KindValidateForm:     "validate_form",
	KindRequestLoadIndex: "request_load_index",
	KindSubmit:           "submit",
	KindClear:            "clear",
	KindSchemaFetched:    "schema_fetched",
	KindOptionsFetched:   "options_fetched",
	KindIndexFetched:     "index_fetched",
	KindSubmitAcked:      "submit_acked",
	KindRequestFailed:    "request_failed",
	KindInstallSchema:    "install_schema",
	KindSetErrors:        "set_errors",
	KindInstallOptions:   "install_options",
	KindResetForm:        "reset_form",
	KindSetLoader:        "set_loader",
	KindSetDirty:         "set_dirty",
	KindSetIndexLoaded:   "set_index_loaded",
	KindNotify:           "notify",
	KindIssueRequest:     "issue_request",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// IsIntent reports whether the kind is handled by the transition table.
func (k Kind) IsIntent() bool {
	return k >= KindRequestSchema && k <= KindClear
}

// IsResponse reports whether the kind is the completion of a remote request.
func (k Kind) IsResponse() bool {
	return k >= KindSchemaFetched && k <= KindRequestFailed
}
