package httpapi

type renameRequest struct {
	Name string `json:"name"`
}

// setCellRequest carries an optional score; null clears the cell.
type setCellRequest struct {
	Value *int `json:"value"`
}

type tableListResponse struct {
	Tables []string `json:"tables"`
}

type sheetRow struct {
	Row        int    `json:"row"`
	Key        string `json:"key"`
	Label      string `json:"label"`
	Hint       string `json:"hint,omitempty"`
	Kind       string `json:"kind"`
	FixedValue int    `json:"fixed_value,omitempty"`
}

type sheetResponse struct {
	Name string     `json:"name"`
	Rows []sheetRow `json:"rows"`
}
