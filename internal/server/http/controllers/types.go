package controllers

// submitReq is the POST /api/logs body.
type submitReq struct {
	Expression string `json:"expression"`
}

// submitResp answers POST /api/logs. Output is null for invalid expressions.
type submitResp struct {
	Message string   `json:"message"`
	Output  *float64 `json:"output"`
	IsValid bool     `json:"isValid"`
}

type messageResp struct {
	Message string `json:"message"`
}
