package bridge

// MethodCall is a single named invocation with its argument map.
type MethodCall struct {
	Method string         `json:"method"`
	Args   map[string]any `json:"args,omitempty"`
}

// ScanFileRequest holds the validated arguments of scanFile.
type ScanFileRequest struct {
	Path string
}

// ParseScanFileRequest extracts the path argument. A missing, null or
// non-string path is rejected with INVALID_PATH. Any string, including
// the empty string, is accepted unmodified.
func ParseScanFileRequest(args map[string]any) (ScanFileRequest, *Error) {
	path, ok := args["path"].(string)
	if !ok {
		return ScanFileRequest{}, &Error{Code: CodeInvalidPath, Message: "No path provided"}
	}
	return ScanFileRequest{Path: path}, nil
}
