// Package gwerrors contains all common errors used by the notes gateway.
package gwerrors

import "fmt"

var ErrRefreshFailed = fmt.Errorf("the credentials could not be refreshed, the session has ended")
var ErrMissingCredentials = fmt.Errorf("the required credentials cannot be found")
var ErrTokenParse = fmt.Errorf("cannot parse the token")
var ErrNotFound = fmt.Errorf("the requested resource cannot be found")
var ErrFileTooLarge = fmt.Errorf("the file exceeds the maximum upload size")
var ErrUnsupportedFileType = fmt.Errorf("the file type is not supported")
var ErrStreamClosed = fmt.Errorf("the stream is closed")
