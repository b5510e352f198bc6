package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfighcl"
)

// Пути, где по умолчанию ищем конфиги. Локальный перекрывает основной
var DefaultFiles = []string{"./config.hcl", "./config.local.hcl"}

const (
	ParserGofeed   = "gofeed"
	ParserSlyMarbo = "slymarbo"
)

// Храним в hcl, любое поле можно перекрыть переменной окружения.
// Имена переменных без префикса, чтобы работали DISCORD_TOKEN, CHANNEL_ID и RSS_URL
type Config struct {
	DiscordToken string `hcl:"discord_token" env:"DISCORD_TOKEN" required:"true"`
	// Канал, куда постим ссылки
	ChannelID uint64 `hcl:"channel_id" env:"CHANNEL_ID" required:"true"`
	FeedURL   string `hcl:"rss_url" env:"RSS_URL" required:"true"`
	// Чем разбираем ленту: gofeed или slymarbo
	FeedParser string `hcl:"feed_parser" env:"FEED_PARSER" default:"gofeed"`

	PollInterval time.Duration `hcl:"poll_interval" env:"POLL_INTERVAL" default:"60s"`
	RunOnStart   bool          `hcl:"run_on_start" env:"RUN_ON_START" default:"false"`
	// Ограничение на весь тик и отдельно на запрос ленты
	TickTimeout  time.Duration `hcl:"tick_timeout" env:"TICK_TIMEOUT" default:"30s"`
	FetchTimeout time.Duration `hcl:"fetch_timeout" env:"FETCH_TIMEOUT" default:"15s"`

	CommandPrefix string `hcl:"command_prefix" env:"COMMAND_PREFIX" default:"~"`
	// Пользователи Discord, которым разрешены админские команды помимо администраторов сервера
	AdminIDs []string `hcl:"admin_ids" env:"ADMIN_IDS"`

	// Журнал запусков в postgres. Пустой DSN - журнал выключен
	DatabaseDSN string `hcl:"database_dsn" env:"DATABASE_DSN"`
	// Сколько хранить записи журнала
	JournalRetention time.Duration `hcl:"journal_retention" env:"JOURNAL_RETENTION" default:"720h"`

	// Алерты оператору в телеграм. Пустой токен - алерты выключены
	TelegramBotToken string `hcl:"telegram_bot_token" env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   int64  `hcl:"telegram_chat_id" env:"TELEGRAM_CHAT_ID"`

	// Адрес для /healthz. Пустой - сервер не поднимаем
	HealthAddr string `hcl:"health_addr" env:"HEALTH_ADDR"`

	LogLevel string `hcl:"log_level" env:"LOG_LEVEL" default:"info"`
	LogFile  string `hcl:"log_file" env:"LOG_FILE"`
}

// Load читает конфиг из файлов и окружения и проверяет его.
// Если files пустой, используются DefaultFiles
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = DefaultFiles
	}

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		// Флаги разбирает cli, сюда они не доходят
		SkipFlags:        true,
		AllowUnknownEnvs: true,
		Files:            files,
		FileDecoders: map[string]aconfig.FileDecoder{
			".hcl": aconfighcl.New(),
		},
	})

	if err := loader.Load(); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	if c.DiscordToken == "" {
		errs = append(errs, errors.New("discord_token: must be set"))
	}

	u, err := url.Parse(c.FeedURL)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("rss_url: %w", err))
	case !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "":
		errs = append(errs, fmt.Errorf("rss_url: %q is not an absolute http(s) url", c.FeedURL))
	}

	if c.ChannelID == 0 {
		errs = append(errs, errors.New("channel_id: must be set"))
	}

	if c.FeedParser != ParserGofeed && c.FeedParser != ParserSlyMarbo {
		errs = append(errs, fmt.Errorf("feed_parser: unknown parser %q", c.FeedParser))
	}

	for name, d := range map[string]time.Duration{
		"poll_interval":     c.PollInterval,
		"tick_timeout":      c.TickTimeout,
		"fetch_timeout":     c.FetchTimeout,
		"journal_retention": c.JournalRetention,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s: must be positive, got %s", name, d))
		}
	}

	if c.CommandPrefix == "" {
		errs = append(errs, errors.New("command_prefix: must not be empty"))
	}

	if (c.TelegramBotToken == "") != (c.TelegramChatID == 0) {
		errs = append(errs, errors.New("telegram_bot_token and telegram_chat_id must be set together"))
	}

	return errors.Join(errs...)
}

func (c Config) AlertsEnabled() bool {
	return c.TelegramBotToken != ""
}

func (c Config) JournalEnabled() bool {
	return c.DatabaseDSN != ""
}
