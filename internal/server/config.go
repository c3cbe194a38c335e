package server

type Config struct {
	Bind string
	Cert string
	Key  string

	Proxy bool
	PProf bool
}
