package application

import "errors"

var ErrChatClosed = errors.New("chat is closed")
