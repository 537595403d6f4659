package dto

type UploadFileResponse struct {
	Name  string `json:"name"`
	Size  int    `json:"size"`
	Type  string `json:"type"`
	Units int    `json:"units"`
}

type FileInfoResponse struct {
	Name  string `json:"name"`
	Units int    `json:"units"`
	Bytes int    `json:"bytes"`
}

type DeleteFileResponse struct {
	Name string `json:"name"`
}
