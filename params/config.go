package params

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Exchange struct {
	// Currencies lists the fiat markets this node opens, one broker each.
	Currencies []string
	// OrderExpiration is how long an un-renewed order rests before the
	// sweep silently drops it.
	OrderExpiration time.Duration
	// InboxSize buffers each broker's request channel.
	InboxSize int
}

type API struct {
	Addr string
}

type P2P struct {
	ListenAddr string
	Bootstrap  []string
}

type Node struct {
	DataDir string
	LogFile string
}

type Config struct {
	Exchange Exchange
	API      API
	P2P      P2P
	Node     Node
}

func Default() Config {
	return Config{
		Exchange: Exchange{
			Currencies:      []string{"EUR", "USD", "GBP", "CHF", "JPY"},
			OrderExpiration: 10 * time.Minute,
			InboxSize:       256,
		},
		API: API{
			Addr: ":8080",
		},
		P2P: P2P{
			ListenAddr: "/ip4/0.0.0.0/tcp/9000",
		},
		Node: Node{
			DataDir: "data",
			LogFile: "data/node.log",
		},
	}
}

// LoadFromEnv loads configuration from .env file (if exists) and environment
// variables. Priority: ENV > .env file > defaults
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	// Try to load .env file (optional - won't fail if not exists)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load() // loads .env from current directory
	}

	if v := os.Getenv("CURRENCIES"); v != "" {
		// Example: "EUR,USD,JPY"
		var codes []string
		for _, c := range strings.Split(v, ",") {
			if c = strings.TrimSpace(c); c != "" {
				codes = append(codes, c)
			}
		}
		if len(codes) > 0 {
			cfg.Exchange.Currencies = codes
		}
	}

	if v := os.Getenv("ORDER_EXPIRATION_MIN"); v != "" {
		if mins, err := strconv.Atoi(v); err == nil && mins > 0 {
			cfg.Exchange.OrderExpiration = time.Duration(mins) * time.Minute
		}
	}

	if v := os.Getenv("BROKER_INBOX_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Exchange.InboxSize = n
		}
	}

	if v := os.Getenv("API_ADDR"); v != "" {
		cfg.API.Addr = v
	}

	if v := os.Getenv("P2P_LISTEN_ADDR"); v != "" {
		cfg.P2P.ListenAddr = v
	}

	if v := os.Getenv("P2P_BOOTSTRAP"); v != "" {
		// Comma-separated multiaddrs
		cfg.P2P.Bootstrap = strings.Split(v, ",")
	}

	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Node.DataDir = v
	}

	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Node.LogFile = v
	}

	return cfg
}
