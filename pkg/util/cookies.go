package util

import "github.com/spf13/viper"

// SecureCookies reports whether auth cookies should carry the Secure
// flag. Local development runs over plain HTTP.
func SecureCookies() bool {
	return viper.GetString("app.env") == "production"
}
