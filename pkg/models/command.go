// Package models defines the core domain models for creative production workflows.
package models

// Operation names a verb in the command adapter vocabulary.
type Operation string

const (
	OperationCreateDraft           Operation = "create_draft"
	OperationCreateTrack           Operation = "create_track"
	OperationAddVideoSegment       Operation = "add_video_segment"
	OperationAddAudioSegment       Operation = "add_audio_segment"
	OperationAddTextSegment        Operation = "add_text_segment"
	OperationFindEffectsByCategory Operation = "find_effects_by_category"
	OperationApplyEffect           Operation = "apply_effect"
	OperationParseMediaMetadata    Operation = "parse_media_metadata"
	OperationExportDraft           Operation = "export_draft"
	OperationGetRuleset            Operation = "get_ruleset"
)

// Operations lists the known vocabulary in a stable order.
func Operations() []Operation {
	return []Operation{
		OperationCreateDraft,
		OperationCreateTrack,
		OperationAddVideoSegment,
		OperationAddAudioSegment,
		OperationAddTextSegment,
		OperationFindEffectsByCategory,
		OperationApplyEffect,
		OperationParseMediaMetadata,
		OperationExportDraft,
		OperationGetRuleset,
	}
}

// IsKnown reports whether the operation belongs to the vocabulary.
func (o Operation) IsKnown() bool {
	for _, known := range Operations() {
		if o == known {
			return true
		}
	}

	return false
}

// IDRole tags an identifier produced by a command.
type IDRole string

const (
	IDRoleDraft   IDRole = "draft"
	IDRoleTrack   IDRole = "track"
	IDRoleSegment IDRole = "segment"
	IDRoleEffect  IDRole = "effect"
)

// ParameterKey returns the request parameter that carries an id of this role.
func (r IDRole) ParameterKey() string {
	return string(r) + "_id"
}

// TrackType is the media kind of a sub-container.
type TrackType string

const (
	TrackTypeVideo TrackType = "video"
	TrackTypeAudio TrackType = "audio"
	TrackTypeText  TrackType = "text"
)

// CommandRequest is a single structured call against the command adapter.
type CommandRequest struct {
	ID         string         `json:"id,omitempty"`
	Operation  Operation      `json:"operation"`
	Parameters map[string]any `json:"parameters"`
}

// CommandResponse is the normalized envelope returned for every command.
// When Success is false, Result is nil and Error is set.
type CommandResponse struct {
	ID           string            `json:"id,omitempty"`
	Success      bool              `json:"success"`
	Result       map[string]any    `json:"result,omitempty"`
	Error        string            `json:"error,omitempty"`
	GeneratedIDs map[IDRole]string `json:"generated_ids"`
}

func NewSuccessResponse(result map[string]any, ids map[IDRole]string) CommandResponse {
	if ids == nil {
		ids = map[IDRole]string{}
	}

	return CommandResponse{
		Success:      true,
		Result:       result,
		GeneratedIDs: ids,
	}
}

func NewFailureResponse(message string) CommandResponse {
	if message == "" {
		message = "unknown error"
	}

	return CommandResponse{
		Success:      false,
		Error:        message,
		GeneratedIDs: map[IDRole]string{},
	}
}

// IDFor returns the generated identifier for the given role, or "".
func (r CommandResponse) IDFor(role IDRole) string {
	if r.GeneratedIDs == nil {
		return ""
	}

	return r.GeneratedIDs[role]
}
