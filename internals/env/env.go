package env

import (
	"log"
	"net"
	"strconv"

	z "github.com/Oudwins/zog"
	"github.com/Oudwins/zog/zenv"
)

type EnvStruct struct {
	HOME        string `zog:"HOME"`
	PORT        int    `zog:"DOCGATE_PORT"`
	HOST        string `zog:"DOCGATE_HOST"`
	DATA_DIR    string `zog:"DOCGATE_DATA_DIR"`
	LISTEN_ADDR string
	LISTEN_PROT string
	BASE_URL    string
}

var env *EnvStruct

var EnvSchema = z.Struct(z.Shape{
	"HOME":     z.String(),
	"PORT":     z.Int().Default(8765),
	"HOST":     z.String().Default("127.0.0.1").Trim(),
	"DATA_DIR": z.String().Optional().Trim(),
})

func Get() *EnvStruct {
	if env == nil {
		env = &EnvStruct{}
		errs := EnvSchema.Parse(zenv.NewDataProvider(), env)
		if errs != nil {
			log.Fatal("[Docgate] Failed to parse environment variables", errs)
		}

		env.LISTEN_PROT = "http://"
		env.LISTEN_ADDR = net.JoinHostPort(env.HOST, strconv.Itoa(env.PORT))
		env.BASE_URL = env.LISTEN_PROT + env.LISTEN_ADDR
	}
	return env
}
