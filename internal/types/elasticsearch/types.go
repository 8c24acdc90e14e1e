package elasticsearch

import "encoding/json"

// IndexMapping is the mappings section of an index. Field definitions are
// kept opaque; only the top-level keys the migrations care about are typed.
type IndexMapping struct {
	Dynamic    interface{}            `json:"dynamic,omitempty"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	Meta       map[string]interface{} `json:"_meta,omitempty"`
}

// IndexInfo is the per-index entry of a get index response.
type IndexInfo struct {
	Aliases  map[string]json.RawMessage `json:"aliases"`
	Mappings IndexMapping               `json:"mappings"`
	Settings json.RawMessage            `json:"settings"`
}

// FetchIndexResponse is keyed by concrete index name. Indices that do not
// exist are absent; closed indices are present.
type FetchIndexResponse map[string]IndexInfo

// AcknowledgedResponse is returned by cluster-state changing APIs.
type AcknowledgedResponse struct {
	Acknowledged       bool `json:"acknowledged"`
	ShardsAcknowledged bool `json:"shards_acknowledged,omitempty"`
}

// TaskResponse is returned by APIs started with wait_for_completion=false.
type TaskResponse struct {
	Task string `json:"task"`
}

// GetTaskResponse is the body of GET _tasks/{id}.
type GetTaskResponse struct {
	Completed bool            `json:"completed"`
	Task      TaskInfo        `json:"task"`
	Response  *TaskStatus     `json:"response,omitempty"`
	Error     json.RawMessage `json:"error,omitempty"`
}

type TaskInfo struct {
	Node        string `json:"node"`
	ID          int64  `json:"id"`
	Action      string `json:"action"`
	Description string `json:"description"`
}

// TaskStatus is the result of a finished reindex or update by query task.
type TaskStatus struct {
	Total            int64         `json:"total"`
	Updated          int64         `json:"updated"`
	Created          int64         `json:"created"`
	VersionConflicts int64         `json:"version_conflicts"`
	Failures         []TaskFailure `json:"failures,omitempty"`
}

type TaskFailure struct {
	Index  string       `json:"index,omitempty"`
	ID     string       `json:"id,omitempty"`
	Status int          `json:"status,omitempty"`
	Cause  FailureCause `json:"cause"`
}

type FailureCause struct {
	Type   string `json:"type"`
	Reason string `json:"reason,omitempty"`
	Index  string `json:"index,omitempty"`
}

// ClusterHealthResponse is the subset of _cluster/health used to wait for
// index status.
type ClusterHealthResponse struct {
	ClusterName string `json:"cluster_name"`
	Status      string `json:"status"`
	TimedOut    bool   `json:"timed_out"`
}

// CreateIndexRequest is the body of PUT {index}.
type CreateIndexRequest struct {
	Mappings IndexMapping               `json:"mappings"`
	Aliases  map[string]json.RawMessage `json:"aliases,omitempty"`
	Settings *IndexSettings             `json:"settings,omitempty"`
}

type IndexSettings struct {
	Index *IndexingSettings `json:"index,omitempty"`
}

type IndexingSettings struct {
	NumberOfShards     int32                 `json:"number_of_shards,omitempty"`
	AutoExpandReplicas string                `json:"auto_expand_replicas,omitempty"`
	RefreshInterval    string                `json:"refresh_interval,omitempty"`
	Mapping            *IndexMappingSettings `json:"mapping,omitempty"`
	Blocks             *IndexBlocksSettings  `json:"blocks,omitempty"`
}

type IndexMappingSettings struct {
	TotalFields *TotalFieldsSettings `json:"total_fields,omitempty"`
}

type TotalFieldsSettings struct {
	Limit int `json:"limit,omitempty"`
}

type IndexBlocksSettings struct {
	Write *bool `json:"write,omitempty"`
}

// AliasActions is the body of POST _aliases.
type AliasActions struct {
	Actions []AliasAction `json:"actions"`
}

type AliasAction struct {
	Add         *AddAliasAction    `json:"add,omitempty"`
	Remove      *RemoveAliasAction `json:"remove,omitempty"`
	RemoveIndex *RemoveIndexAction `json:"remove_index,omitempty"`
}

type AddAliasAction struct {
	Index        string `json:"index"`
	Alias        string `json:"alias"`
	MustExist    *bool  `json:"must_exist,omitempty"`
	IsWriteIndex *bool  `json:"is_write_index,omitempty"`
}

type RemoveAliasAction struct {
	Index     string `json:"index"`
	Alias     string `json:"alias"`
	MustExist *bool  `json:"must_exist,omitempty"`
}

type RemoveIndexAction struct {
	Index string `json:"index"`
}

// ReIndex is the body of POST _reindex.
type ReIndex struct {
	// Conflicts set to proceed keeps the task going past documents that
	// already exist in the destination.
	Conflicts string         `json:"conflicts,omitempty"`
	Source    ReIndexSource  `json:"source"`
	Dest      ReIndexDest    `json:"dest"`
	Script    *ReIndexScript `json:"script,omitempty"`
}

type ReIndexSource struct {
	Index string          `json:"index"`
	Size  int             `json:"size,omitempty"`
	Query json.RawMessage `json:"query,omitempty"`
}

type ReIndexDest struct {
	Index  string `json:"index"`
	OpType string `json:"op_type,omitempty"`
}

type ReIndexScript struct {
	Source string `json:"source"`
	Lang   string `json:"lang"`
}

// UpdateByQueryBody is the optional body of POST {index}/_update_by_query.
type UpdateByQueryBody struct {
	Query json.RawMessage `json:"query,omitempty"`
}
