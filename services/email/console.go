package emailsvc

import (
	"fmt"
	"io"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/trezcool/masomo-console/core"
)

var NowFunc = time.Now // mockable

type consoleService struct {
	mu         sync.Mutex
	w          io.Writer
	from       mail.Address
	subjPrefix string
}

var _ core.EmailService = (*consoleService)(nil)

// NewConsoleService returns an EmailService printing messages to w instead of sending them.
func NewConsoleService(w io.Writer, conf *core.Config) core.EmailService {
	return &consoleService{
		w:          w,
		from:       mail.Address{Name: conf.AppName, Address: conf.Mail.From},
		subjPrefix: "[" + conf.AppName + "] ",
	}
}

func (svc *consoleService) Send(msg *core.EmailMessage) error {
	if !msg.HasRecipients() || !msg.HasContent() {
		return nil
	}
	body := new(strings.Builder)
	_, _ = fmt.Fprintf(body, "From: %s\r\n", svc.from.String())
	_, _ = fmt.Fprintf(body, "To: %s\r\n", joinAddresses(msg.To))
	_, _ = fmt.Fprintf(body, "Date: %s\r\n", NowFunc().Format(time.RFC1123Z))
	_, _ = fmt.Fprintf(body, "Subject: %s\r\n", svc.subjPrefix+msg.Subject)
	_, _ = fmt.Fprint(body, "MIME-Version: 1.0\r\n")
	_, _ = fmt.Fprint(body, "Content-Type: text/plain; charset=utf-8\r\n\r\n")
	_, _ = fmt.Fprintf(body, "%s\r\n", msg.Body)

	svc.mu.Lock()
	defer svc.mu.Unlock()
	_, err := io.WriteString(svc.w, body.String())
	return err
}

func joinAddresses(addrs []mail.Address) string {
	toJoin := make([]string, 0, len(addrs))
	for _, a := range addrs {
		toJoin = append(toJoin, a.String())
	}
	return strings.Join(toJoin, ", ")
}
