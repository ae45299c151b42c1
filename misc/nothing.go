package misc

// Nothing is the empty payload for rpc calls that need no request or reply.
type Nothing struct{}
