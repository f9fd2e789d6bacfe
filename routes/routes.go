package routes

import (
	"fmt"
	"math/rand"

	"tinyhttp/server"
)

const rootPage = `<html><body>
    <strong>This is very simple HTTP server.</strong>
    <br/>
    It supports only GET request on following URIs:
    <ul>
        <a href="/"><tt>/</tt></a> - this root page
    </ul>
    <ul>
        <a href="/hello"><tt>/hello</tt></a> - prints Hello world! message.
    </ul>
    <ul>
        <a href="/lorem"><tt>/lorem</tt></a> - prints some lorem ipsum text.
    </ul>
    <ul>
        <a href="/joke"><tt>/joke</tt></a> - prints a random joke.
    </ul>
    </body></html>`

const helloPage = `<html><body>Hello world!</body></html>`

const loremPage = `
    <p>Lorem ipsum dolor sit amet, consectetuer adipiscing elit. Nullam rhoncus aliquam metus.
    Nullam eget nisl.
    Quis autem vel eum iure reprehenderit qui in ea voluptate velit esse quam nihil molestiae consequatur, vel illum qui dolorem eum fugiat quo voluptas nulla pariatur? Sed elit dui, pellentesque a, faucibus vel, interdum nec, diam.
    Lorem ipsum dolor sit amet, consectetuer adipiscing elit.
    Nulla quis diam.
    Nullam justo enim, consectetuer nec, ullamcorper ac, vestibulum in, elit.
    Nam sed tellus id magna elementum tincidunt.
    Donec iaculis gravida nulla.
    Praesent in mauris eu tortor porttitor accumsan.
    Aliquam erat volutpat.
    </p>
    `

const jokePage = `<html><body>
    <strong>%s</strong>
    </br>
    </br>
    Credits: http://attrition.org/misc/ee/protolol.txt
    </body></html>`

// Router serves the fixed set of pages.
type Router struct {
	jokes *JokeBook
}

var _ server.Resolver = (*Router)(nil)

// NewRouter returns a Router backed by jokes, or by the built-in joke table
// when jokes is nil.
func NewRouter(jokes *JokeBook) *Router {
	if jokes == nil {
		jokes = NewJokeBook("")
	}
	return &Router{jokes: jokes}
}

func (rt *Router) Resolve(method server.Method, uri string) ([]byte, bool) {
	if method.IsOther() {
		return nil, false
	}

	switch uri {
	case "/":
		return []byte(rootPage), true
	case "/hello":
		return []byte(helloPage), true
	case "/lorem":
		return []byte(loremPage), true
	case "/joke":
		return rt.joke(), true
	default:
		return nil, false
	}
}

func (rt *Router) joke() []byte {
	jokes := rt.jokes.Jokes()
	return fmt.Appendf(nil, jokePage, jokes[rand.Intn(len(jokes))])
}
