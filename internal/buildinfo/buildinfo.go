package buildinfo

// Values are overridden at link time:
//
//	go build -ldflags "-X github.com/HHN/idealize-recommendation/internal/buildinfo.Version=v1.2.3"
var (
	Version   = "dev"
	Revision  = "unknown"
	BuildDate = "unknown"
)

// Name is the service name reported by health checks and the MCP handshake.
const Name = "idealize-recsys-chatbot"
