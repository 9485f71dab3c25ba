package config

import "time"

const (
	DefaultTimeZone    = "America/Bogota"
	DefaultSourceFile  = "CONTROL DE PAGOS.xlsx"
	DefaultSourceSheet = "Control_Pagos"
	DefaultLedgerFile  = "CONTROL PAGOS.xlsx"
	DefaultOutputRoot  = "proyeccion semana"
	DefaultLocale      = "es"
	DefaultMatchMode   = "day"
	PendingToken       = "PAGAR"
	SeparatorRows      = 2

	// Lock handling for unattended runs (console and scheduler)
	DefaultRetryAttempts = 12
	DefaultRetryDelay    = 10 * time.Second

	DefaultConsolePort     = 8143
	DefaultSchedule        = "0 7 * * 2" // Tuesdays 07:00, ahead of Wednesday payments
	DefaultRunRetention    = 7 * 24 * time.Hour
	DefaultNotificationCap = 50

	EnvPrefix = "CONTROL_PAGOS_"
)
