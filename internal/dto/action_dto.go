package dto

type CreateRecordRequest struct {
	FlowKey string                 `json:"flow_key" validate:"required"`
	Fields  map[string]interface{} `json:"fields" validate:"required,min=1"`
}

type CreateRecordResponse struct {
	RecordId           string `json:"record_id"`
	ActivityInstanceId string `json:"activity_instance_id,omitempty"`
}

type OpenPopupRequest struct {
	FlowKey  string `json:"flow_key" validate:"required"`
	RecordId string `json:"record_id" validate:"required"`
}

type BalanceResponse struct {
	FlowKey  string                 `json:"flow_key"`
	Balances map[string]interface{} `json:"balances"`
}
