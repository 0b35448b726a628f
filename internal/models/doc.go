// Package models holds the request and result types shared by the engine and the transports.
package models
