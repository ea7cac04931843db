// Package config provides configuration for modelctl.
//
// Values are resolved from, in order of precedence: command-line flags,
// VMODEL_* environment variables (including those loaded from .env and
// .env.local), an optional modelctl.yaml file, and the defaults from New.
//
// # Environment
//
//	VMODEL_PORT=8080
//	VMODEL_PERSIST=s3
//	VMODEL_S3_BUCKET=my-models
//	VMODEL_DEBOUNCE=2s
//	VMODEL_LOG_FORMAT=json
//
// # Usage
//
//	v := viper.New()
//	config.InitEnv(v)
//	_ = v.BindPFlags(cmd.Flags())
//	cfg, err := config.Load(v)
//	if err != nil {
//	    return err
//	}
//	fmt.Println("Listening on", cfg.Address())
package config
