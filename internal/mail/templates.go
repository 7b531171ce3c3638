package mail

import (
	"bytes"
	"fmt"
	"html/template"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	SubjectSellerActivated    = "[MMOMarket] Seller Account Activated Successfully"
	SubjectPointsPurchased    = "[MMOMarket] Points Purchase Successful"
	SubjectWithdrawalReceived = "[MMOMarket] Withdrawal Request Submitted"
)

//nolint:gochecknoglobals
var (
	printer = message.NewPrinter(language.English)

	layout = template.Must(template.New("layout").Parse(`<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif;color:#1f2937">
<h2>{{.Heading}}</h2>
<p>Hello {{.Name}},</p>
{{range .Lines}}<p>{{.}}</p>
{{end}}<p>MMOMarket team</p>
</body></html>`))
)

type page struct {
	Heading string
	Name    string
	Lines   []string
}

func render(p page) (string, error) {
	var buf bytes.Buffer
	if err := layout.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("rendering %q email: %w", p.Heading, err)
	}
	return buf.String(), nil
}

// Number форматирует целое с разделителями разрядов: 200000 -> 200,000.
func Number(v int64) string {
	return printer.Sprintf("%d", v)
}

func SellerActivated(name, shopName string, fee int64) (string, error) {
	return render(page{
		Heading: "Your seller account is active",
		Name:    name,
		Lines: []string{
			fmt.Sprintf("Your shop %q has been activated and is ready to receive orders.", shopName),
			fmt.Sprintf("A registration fee of %s coins has been deducted from your balance.", Number(fee)),
		},
	})
}

func PointsPurchased(name string, points int64, level int16, total int64, commission string) (string, error) {
	return render(page{
		Heading: "Points purchase successful",
		Name:    name,
		Lines: []string{
			fmt.Sprintf("You have bought %s points.", Number(points)),
			fmt.Sprintf("Your shop now has %s points and is at level %d.", Number(total), level),
			fmt.Sprintf("Current commission rate: %s%%.", commission),
		},
	})
}

func WithdrawalReceived(name string, amount int64, bankAccount, submittedAt string) (string, error) {
	return render(page{
		Heading: "Withdrawal request submitted",
		Name:    name,
		Lines: []string{
			fmt.Sprintf("We have received your withdrawal request of %s VND.", Number(amount)),
			fmt.Sprintf("Destination account: %s.", bankAccount),
			fmt.Sprintf("Submitted at %s. The request is pending approval.", submittedAt),
		},
	})
}
