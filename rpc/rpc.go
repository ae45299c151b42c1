package rpc

import (
	"fmt"

	"MandelbrotMovie/misc"
)

// Server accepts connections for one registered rpc object until stopped.
type Server interface {
	Run() error
	Stop() error
	Wait()
}

// Caller is the client side of a connection to an rpc server.
type Caller interface {
	Connect() error
	Call(method string, request interface{}, reply interface{}) error
	Disconnect() error
}

// NewServer returns a server for the named transport, tcp or http.
func NewServer(transport string, object interface{}, address string, name string) (Server, error) {
	switch transport {
	case "tcp":
		server := NewTcpServer(object, address, name)
		return &server, nil
	case "http":
		server := NewHttpServer(object, address, name)
		return &server, nil
	default:
		return nil, fmt.Errorf("%w: unknown rpc transport %q", misc.ErrInvalidConfiguration, transport)
	}
}

// NewCaller returns a client for the named transport, tcp or http.
func NewCaller(transport string, serverAddress string, name string) (Caller, error) {
	switch transport {
	case "tcp":
		caller := NewTcpClient(serverAddress, name)
		return &caller, nil
	case "http":
		caller := NewHttpClient(serverAddress, name)
		return &caller, nil
	default:
		return nil, fmt.Errorf("%w: unknown rpc transport %q", misc.ErrInvalidConfiguration, transport)
	}
}
