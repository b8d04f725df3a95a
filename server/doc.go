// Package server is the HTTP surface shared by pulse binaries: a Gin engine
// behind an h2c handler, so browsers and the realtime client can multiplex
// many event streams over one cleartext HTTP/2 connection.
//
// Request logging and CORS wrap the whole handler at the server level,
// where the response writer still supports flushing. Recovery and request
// IDs run inside Gin.
//
//	srv := server.New(cfg.Server, log)
//	srv.ApplyMiddleware()
//	srv.RegisterHealth(cfg.Name, components.HealthAll)
//	srv.GinEngine().GET("/api/events/:channel", streamHandler)
package server
