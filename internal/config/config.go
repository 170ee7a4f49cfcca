package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort    string `env:"PORT" envDefault:"5001"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	DBMaxConns  int32  `env:"DB_MAX_CONNS" envDefault:"10"`
	JWTSecret   string `env:"JWT_SECRET,required,notEmpty"`
	AppEnv      string `env:"APP_ENV" envDefault:"production"`

	UploadDir    string `env:"UPLOAD_DIR" envDefault:"uploads"`
	AssetBackend string `env:"ASSET_BACKEND" envDefault:"disk"`
	S3Bucket     string `env:"S3_BUCKET"`
	S3Region     string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Endpoint   string `env:"S3_ENDPOINT"`
	S3AccessKey  string `env:"S3_ACCESS_KEY"`
	S3SecretKey  string `env:"S3_SECRET_KEY"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	LoginMaxAttempts   int `env:"LOGIN_MAX_ATTEMPTS" envDefault:"5"`
	LoginWindowMinutes int `env:"LOGIN_WINDOW_MINUTES" envDefault:"10"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsDevelopment indica si las respuestas pueden exponer detalle de errores internos.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}
