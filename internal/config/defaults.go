package config

import "github.com/spf13/viper"

// DefaultAllowedUploadTypes are the content types the editor can embed
var DefaultAllowedUploadTypes = []string{
	// Images
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"image/svg+xml",
	// Videos
	"video/mp4",
	"video/quicktime",
	"video/x-msvideo",
	"video/x-matroska",
	"video/webm",
	// PDF
	"application/pdf",
	// Word
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	// Excel
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	// PowerPoint
	"application/vnd.ms-powerpoint",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
}

const DefaultMaxFileSizeBytes int64 = 10 * 1024 * 1024

func setDefaults(v *viper.Viper) {
	v.SetDefault("runningEnvironment", string(Production))
	v.SetDefault("debugMode", false)

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rateLimits.enabled", false)
	v.SetDefault("server.rateLimits.rate", 20)
	v.SetDefault("server.rateLimits.burst", 40)
	v.SetDefault("server.allowOrigin", []string{})

	v.SetDefault("api.baseURL", "http://localhost:8000/api/v1")
	v.SetDefault("api.socialBaseURL", "http://localhost:8000")
	v.SetDefault("api.refreshPath", "/auth/refresh")
	v.SetDefault("api.expirySentinel", DefaultExpirySentinel)
	v.SetDefault("api.refreshTimeoutSeconds", 30)
	v.SetDefault("api.requestTimeoutSeconds", 0)

	v.SetDefault("credentials.type", CredentialsTypeMemory)
	v.SetDefault("credentials.filePath", "")
	v.SetDefault("credentials.keyPrefix", "notes")
	v.SetDefault("credentials.tokenEncryption.enabled", false)
	v.SetDefault("credentials.tokenEncryption.secretKey", "")

	v.SetDefault("redis.type", DBTypeRedis)
	v.SetDefault("redis.addresses", []string{"127.0.0.1:6379"})
	v.SetDefault("redis.isSentinel", false)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.masterName", "")
	v.SetDefault("redis.dbIndex", 0)

	v.SetDefault("login.endpointsBasePath", "/auth")
	v.SetDefault("login.loginEntryPath", "/auth/login")
	v.SetDefault("login.appRedirectURL", "/")
	v.SetDefault("login.socialLoginPaths", map[string]string{"google": "/api/auth/google/login"})

	v.SetDefault("revproxy.pathPrefix", "/api/v1")

	v.SetDefault("keepalive.enabled", false)
	v.SetDefault("keepalive.expiryMarginMinutes", 3)

	v.SetDefault("uploads.maxFileSizeBytes", DefaultMaxFileSizeBytes)
	v.SetDefault("uploads.allowedTypes", DefaultAllowedUploadTypes)

	v.SetDefault("monitoring.sentry.enabled", false)
	v.SetDefault("monitoring.sentry.dsn", "")
	v.SetDefault("monitoring.sentry.environment", "")
	v.SetDefault("monitoring.sentry.sampleRate", 0.0)
	v.SetDefault("monitoring.prometheus.enabled", false)
	v.SetDefault("monitoring.prometheus.port", 8765)
}
